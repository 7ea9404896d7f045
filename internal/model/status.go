package model

// Canonical status values. Any other string is still a valid status and is
// stored verbatim; it classifies as StatusKindOther.
const (
	StatusPending      = "pending"
	StatusDone         = "done"
	StatusReadyToServe = "ready-to-serve"
	StatusCancelled    = "cancelled"
)

type StatusKind int

const (
	StatusKindOther StatusKind = iota
	StatusKindPending
	StatusKindDone
	StatusKindReadyToServe
	StatusKindCancelled
)

// legacy values written by earlier deployments of the shop backend
var statusAliases = map[string]StatusKind{
	StatusPending:      StatusKindPending,
	StatusDone:         StatusKindDone,
	StatusReadyToServe: StatusKindReadyToServe,
	StatusCancelled:    StatusKindCancelled,
	"กำลังทำ":          StatusKindPending,
	"เสร็จแล้ว":        StatusKindDone,
	"พร้อมเสิร์ฟ":      StatusKindReadyToServe,
	"ยกเลิก":           StatusKindCancelled,
}

// ClassifyStatus maps a stored status string to its kind by exact match.
func ClassifyStatus(status string) StatusKind {
	if kind, ok := statusAliases[status]; ok {
		return kind
	}
	return StatusKindOther
}

func (k StatusKind) String() string {
	switch k {
	case StatusKindPending:
		return StatusPending
	case StatusKindDone:
		return StatusDone
	case StatusKindReadyToServe:
		return StatusReadyToServe
	case StatusKindCancelled:
		return StatusCancelled
	default:
		return "other"
	}
}
