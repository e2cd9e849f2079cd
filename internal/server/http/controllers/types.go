package controllers

// appendReq is the body of POST /v1/log.
type appendReq struct {
	ClientID  string `json:"clientId"`
	Name      string `json:"name"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	Timestamp int64  `json:"ts"`
}

type entryResp struct {
	ID        uint64 `json:"id"`
	Timestamp int64  `json:"ts"`
	Text      string `json:"text"`
}

type readResp struct {
	Store   string      `json:"store"`
	Order   string      `json:"order"`
	Entries []entryResp `json:"entries"`
}
