package models

// BackupSnapshot is a full copy of the collections taken before a risky operation.
type BackupSnapshot struct {
	Timestamp   string         `json:"timestamp"`
	AppName     string         `json:"appName"`
	Description string         `json:"description"`
	Data        Collections    `json:"data"`
	Metadata    BackupMetadata `json:"metadata"`
}

type BackupMetadata struct {
	TotalQuestions int    `json:"totalQuestions"`
	ExportDate     string `json:"exportDate"`
}

// BackupInfo summarises a stored snapshot for listings.
type BackupInfo struct {
	Key            string `json:"key"`
	CreatedAt      int64  `json:"createdAt"`
	Timestamp      string `json:"timestamp"`
	Description    string `json:"description"`
	TotalQuestions int    `json:"totalQuestions"`
}
