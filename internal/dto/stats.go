package dto

// StatsQuery captures GET /stats query parameters.
type StatsQuery struct {
	Mode string `form:"mode"`
	From string `form:"from"`
	To   string `form:"to"`
}
