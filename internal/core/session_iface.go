package core

// SessionID identifies one live connection. A reconnect gets a new one.
type SessionID string
