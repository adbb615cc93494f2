package models

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionLogout             = "LOGOUT"
	AuditActionUserCreate         = "USER_CREATE"
	AuditActionUserUpdate         = "USER_UPDATE"
	AuditActionConsultationCreate = "CONSULTATION_CREATE"
	AuditActionConsultationExport = "CONSULTATION_EXPORT"
)

// AuditEvent is a structured audit trail entry emitted to the log.
type AuditEvent struct {
	Action     string
	UserID     string
	Resource   string
	ResourceID string
	IPAddress  string
	UserAgent  string
	Status     int
}
