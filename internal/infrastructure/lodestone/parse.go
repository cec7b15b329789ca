package lodestone

import (
	"io"
	"strconv"
	"strings"

	"raid-recruit/internal/domain/game"
	"raid-recruit/internal/domain/user"

	"github.com/PuerkitoBio/goquery"
)

// jobOrder is the order job levels appear in the character level list.
var jobOrder = []string{
	"PLD", "WAR", "DRK", "GNB",
	"WHM", "SCH", "AST", "SGE",
	"MNK", "DRG", "NIN", "SAM", "RPR", "VPR",
	"BRD", "MCH", "DNC",
	"BLM", "SMN", "RDM", "PCT", "BLU",
	"CRP", "BSM", "ARM", "GSM", "LTW", "WVR", "ALC", "CUL",
	"MIN", "BTN", "FSH",
}

// ParseCharacter extracts the public character fields from a Lodestone
// character page. A page without a character name is treated as missing.
func ParseCharacter(r io.Reader) (user.LodestoneCharacter, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return user.LodestoneCharacter{}, &Error{Message: "parse html", Cause: err}
	}

	name := collapseSpace(doc.Find("p.frame__chara__name").First().Text())
	if name == "" {
		return user.LodestoneCharacter{}, user.ErrCharacterNotFound
	}

	out := user.LodestoneCharacter{
		CharacterName: name,
		Server:        parseServer(doc.Find("p.frame__chara__world").First().Text()),
		Jobs:          parseJobs(doc),
		GrandCompany:  parseGrandCompany(doc),
		FreeCompany:   parseFreeCompany(doc),
	}
	if dc, ok := game.DataCenterForServer(out.Server); ok {
		out.DataCenter = dc
	}
	return out, nil
}

// parseServer reads "Gilgamesh [Aether]" style world text.
func parseServer(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "[]")
}

func parseJobs(doc *goquery.Document) map[string]int {
	jobs := map[string]int{}
	doc.Find("div.js__character_toggle li").Each(func(i int, s *goquery.Selection) {
		if i >= len(jobOrder) {
			return
		}
		lvl, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil || lvl <= 0 {
			return
		}
		jobs[jobOrder[i]] = lvl
	})
	return jobs
}

func parseGrandCompany(doc *goquery.Document) string {
	var gc string
	doc.Find("div.character-block").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("p.character-block__title").Text())
		if !strings.EqualFold(title, "Grand Company") {
			return true
		}
		name := s.Find("p.character-block__name").Text()
		gc = strings.TrimSpace(strings.SplitN(name, "/", 2)[0])
		return false
	})
	return gc
}

func parseFreeCompany(doc *goquery.Document) string {
	sel := doc.Find("div.character__freecompany__name").First()
	if sel.Length() == 0 {
		return ""
	}
	if h := collapseSpace(sel.Find("h4").Text()); h != "" {
		return h
	}
	return collapseSpace(strings.Replace(sel.Text(), "Free Company", "", 1))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
