package dto

type AnalyzeRequest struct {
	Provider  string `json:"provider" binding:"required"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

type SearchRequest struct {
	Query     string `json:"query" binding:"required"`
	Provider  string `json:"provider"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Limit     int    `json:"limit"`
}

type FetchResponse struct {
	Provider string      `json:"provider"`
	Count    int         `json:"count"`
	Messages interface{} `json:"messages"`
}
