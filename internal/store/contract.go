package store

// Contract is one procurement award record materialized from a query row.
// Rows are read-only: the dataset is externally produced and never written
// back.
type Contract struct {
	AwardID      string  `json:"award_id"`
	ReferenceID  string  `json:"reference_id"`
	AwardTitle   string  `json:"award_title"`
	Awardee      string  `json:"awardee"`
	Organization string  `json:"organization"`
	Area         string  `json:"area"`
	Category     string  `json:"category"`
	Amount       float64 `json:"amount"`
	AwardDate    string  `json:"award_date"`
	Status       string  `json:"status"`
}

// Filter is the query intent for Search and Count. Zero-valued fields
// impose no constraint; provided fields AND together.
type Filter struct {
	Query    string // case-insensitive substring over title/awardee/organization
	Area     string // case-insensitive substring over delivery area
	Category string // case-insensitive substring over business category

	SortKey string // one of "amount", "date", "title"; default amount
	SortAsc bool   // default false (descending)

	Limit  int // default 20
	Offset int
}

// Bucket is one row of an aggregate breakdown.
type Bucket struct {
	Label       string  `json:"label"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// Stats summarizes the loaded dataset in one pass.
type Stats struct {
	Rows          int     `json:"rows"`
	TotalValue    float64 `json:"total_value"`
	AverageValue  float64 `json:"average_value"`
	Organizations int     `json:"organizations"`
	Areas         int     `json:"areas"`
	Categories    int     `json:"categories"`
	EarliestAward string  `json:"earliest_award"`
	LatestAward   string  `json:"latest_award"`
}
