// Package lodestone reads public character pages from the Final Fantasy XIV
// Lodestone.
package lodestone

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"raid-recruit/internal/config"
	"raid-recruit/internal/domain/user"

	"github.com/gocolly/colly/v2"
)

const (
	DefaultBaseURL   = "https://na.finalfantasyxiv.com"
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// Error is a failed page fetch.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("lodestone error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("lodestone error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type Client struct {
	baseURL     string
	allowedHost string
	headless    bool
	timeout     time.Duration
	userAgent   string
	logger      *log.Logger
}

func NewClient(cfg config.LodestoneConfig, logger *log.Logger) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:     base,
		allowedHost: hostFromBaseURL(base),
		headless:    cfg.Headless,
		timeout:     timeout,
		userAgent:   DefaultUserAgent,
		logger:      logger,
	}
}

// Lookup fetches and parses the character page for lodestoneID. Unknown
// characters yield user.ErrCharacterNotFound.
func (c *Client) Lookup(ctx context.Context, lodestoneID string) (user.LodestoneCharacter, error) {
	if c == nil {
		return user.LodestoneCharacter{}, errors.New("nil lodestone client")
	}
	lodestoneID = strings.TrimSpace(lodestoneID)
	if lodestoneID == "" {
		return user.LodestoneCharacter{}, user.ErrCharacterNotFound
	}

	pageURL := c.characterURL(lodestoneID)
	start := time.Now()

	var (
		body []byte
		err  error
	)
	if c.headless {
		body, err = c.fetchHeadless(ctx, pageURL)
	} else {
		body, err = c.fetch(ctx, pageURL)
	}
	if err != nil {
		c.logf("[Lodestone] fetch failed id=%s err=%v", lodestoneID, err)
		return user.LodestoneCharacter{}, err
	}

	ch, err := ParseCharacter(bytes.NewReader(body))
	if err != nil {
		return user.LodestoneCharacter{}, err
	}
	ch.LodestoneID = lodestoneID

	c.logf("[Lodestone] character fetched id=%s name=%q server=%s duration_ms=%d", lodestoneID, ch.CharacterName, ch.Server, time.Since(start).Milliseconds())
	return ch, nil
}

func (c *Client) characterURL(id string) string {
	return fmt.Sprintf("%s/lodestone/character/%s/", c.baseURL, url.PathEscape(id))
}

func (c *Client) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	col := colly.NewCollector(
		colly.AllowedDomains(c.allowedHost),
		colly.UserAgent(c.userAgent),
	)
	col.SetRequestTimeout(c.timeout)
	_ = col.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1, RandomDelay: 250 * time.Millisecond})

	var (
		body   []byte
		status int
		reqErr error
	)

	col.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	col.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	col.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	visitErr := col.Visit(pageURL)
	col.Wait()

	if status == http.StatusNotFound {
		return nil, user.ErrCharacterNotFound
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if reqErr == nil {
		reqErr = visitErr
	}
	if reqErr != nil {
		return nil, &Error{URL: pageURL, Message: fmt.Sprintf("request failed status=%d", status), Cause: reqErr}
	}
	if len(body) == 0 {
		return nil, &Error{URL: pageURL, Message: "empty response"}
	}
	return body, nil
}

func (c *Client) logf(format string, args ...any) {
	if c == nil || c.logger == nil {
		return
	}
	c.logger.Printf(format, args...)
}

func hostFromBaseURL(base string) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Host == "" {
		return "na.finalfantasyxiv.com"
	}
	if h, _, err := net.SplitHostPort(u.Host); err == nil {
		return h
	}
	return u.Host
}
