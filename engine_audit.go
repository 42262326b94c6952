package trybeauth

import "context"

const (
	auditEventRegisterSuccess   = "register_success"
	auditEventRegisterDuplicate = "register_duplicate"
	auditEventRegisterFailure   = "register_failure"
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventGateRejected      = "gate_rejected"
	auditEventSessionRotated    = "session_rotated"
	auditEventRotationFailed    = "session_rotation_failed"
	auditEventLogout            = "logout"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	info := RequestInfoFromContext(ctx)
	if info.UserAgent != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["user_agent"] = info.UserAgent
	}

	// Timestamp is stamped by the dispatcher at enqueue time.
	event := AuditEvent{
		EventType: eventType,
		UserID:    userID,
		IP:        info.IP,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = AsError(err).Code
	}

	e.audit.Emit(ctx, event)
}
