package model

// RosterEntry Dapodik 名册条目：某学校应参训的人员
type RosterEntry struct {
	NPSN string `json:"npsn"`
	Name string `json:"nama"`
}
