package core

// Count is a label with the number of records carrying it.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RecordSummary holds the operational counts over a record collection.
type RecordSummary struct {
	TotalEntries int     `json:"totalEntries"`
	TotalDates   int     `json:"totalDates"`
	ByStatus     []Count `json:"byStatus"`
	ByVehicle    []Count `json:"byVehicleType"`
	BySource     []Count `json:"bySource"`
}

// MonthTotal is the bill revenue for one YYYY-MM month.
type MonthTotal struct {
	Month string `json:"month"`
	Total Money  `json:"total"`
	Count int    `json:"count"`
}

// CustomerStat is how often a customer was billed and for how much.
type CustomerStat struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Revenue Money  `json:"revenue"`
}

// MonthSection is a month band of records for display and export.
type MonthSection struct {
	Key    string      `json:"key"`
	Label  string      `json:"label"`
	Groups []DateGroup `json:"groups"`
}
