package logging

import "log/slog"

// Common field names for consistent logging across services.
const (
	FieldService   = "service"
	FieldTabID     = "tab_id"
	FieldDomain    = "domain"
	FieldQueue     = "queue"
	FieldEventName = "event_name"
	FieldEventID   = "event_id"
	FieldSubject   = "subject"
	FieldMsgType   = "msg_type"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldClientIP  = "client_ip"
	FieldError     = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// TabID returns a slog attribute for the browser tab identifier.
func TabID(id int) slog.Attr {
	return slog.Int(FieldTabID, id)
}

// Domain returns a slog attribute for the page hostname.
func Domain(domain string) slog.Attr {
	return slog.String(FieldDomain, domain)
}

// Queue returns a slog attribute for a monitored queue name.
func Queue(name string) slog.Attr {
	return slog.String(FieldQueue, name)
}

// EventName returns a slog attribute for a captured event's name.
func EventName(name string) slog.Attr {
	return slog.String(FieldEventName, name)
}

// EventID returns a slog attribute for a captured event's ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// Subject returns a slog attribute for a message bus subject.
func Subject(subject string) slog.Attr {
	return slog.String(FieldSubject, subject)
}

// MsgType returns a slog attribute for a message envelope type.
func MsgType(t string) slog.Attr {
	return slog.String(FieldMsgType, t)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// ClientIP returns a slog attribute for the requesting client's address.
func ClientIP(ip string) slog.Attr {
	return slog.String(FieldClientIP, ip)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
