package seeder

func Defaults() []Seeder {
	return []Seeder{
		DemoUsersSeeder{},
		DemoListingsSeeder{},
	}
}
