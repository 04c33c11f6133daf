package notify

import "time"

const (
	alertStreamName    = "ALERTS"
	alertSubjectPrefix = "alert."
	escalationSubject  = "alert.escalation"
	alertStreamMaxAge  = 7 * 24 * time.Hour
	alertStreamMaxMsgs = -1
)
