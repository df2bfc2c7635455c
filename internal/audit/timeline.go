package audit

import "time"

// AccessFilters menampung filter dasar untuk jejak access log.
type AccessFilters struct {
	From     time.Time
	To       time.Time
	UserID   int64
	Decision string
	Reason   string
	Page     int
	PageSize int
}

// AccessRow mewakili satu baris access log.
type AccessRow struct {
	At           time.Time
	DecisionID   string
	UserID       int64
	RoleID       int64
	CapabilityID int64
	Path         string
	Method       string
	Decision     string
	Reason       string
}

// ViolationFilters menampung filter untuk pelanggaran policy.
type ViolationFilters struct {
	From      time.Time
	To        time.Time
	UserID    int64
	Attribute string
	Page      int
	PageSize  int
}

// ViolationRow mewakili satu baris pelanggaran policy.
type ViolationRow struct {
	At           time.Time
	DecisionID   string
	UserID       int64
	CapabilityID int64
	Attribute    string
	Reason       string
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// AccessResult membungkus hasil access log dengan informasi paging.
type AccessResult struct {
	Rows   []AccessRow
	Paging PagingInfo
}

// ViolationResult membungkus hasil pelanggaran dengan informasi paging.
type ViolationResult struct {
	Rows   []ViolationRow
	Paging PagingInfo
}
