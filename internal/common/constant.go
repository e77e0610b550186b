package common

// SessionCookieName is the cookie that carries the signed operator session.
const SessionCookieName = "admin_session"

// DocumentContentType is the media type of the stored user table.
const DocumentContentType = "application/json"
