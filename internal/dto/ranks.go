package dto

// RankFetchRequest registers a keyword rank fetch for a shop and date.
type RankFetchRequest struct {
	Keyword    string `json:"keyword"`
	TargetDate string `json:"target_date"`
}
