// Package gazette models insolvency notices as delivered by the external
// Gazette monitor. Parsing of the notice documents themselves happens
// upstream; this package only consumes the monitor's CSV hand-off.
package gazette

import "time"

// InsolvencySubject is one company named in an insolvency notice.
type InsolvencySubject struct {
	CompanyName      string
	CompanyNumber    string
	InsolvencyType   string
	NoticeDate       *time.Time
	PractitionerName string
	PractitionerFirm string
}
