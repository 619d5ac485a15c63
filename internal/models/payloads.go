package models

// These structs define the JSON payloads exchanged with the mobile clients.

// UploadImageResponse is returned by the profile photo upload.
type UploadImageResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OfficerMutationResponse reports an officer add or update.
type OfficerMutationResponse struct {
	Status string `json:"status"`
	Agid   string `json:"agid,omitempty"`
	Error  string `json:"error,omitempty"`
}

type SyncFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// OfficerSyncResponse is the result of a full officers sheet push.
type OfficerSyncResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Count   int           `json:"count"`
	Errors  []SyncFailure `json:"errors,omitempty"`
}

// SheetSyncResponse is the result of a full employees sheet push.
type SheetSyncResponse struct {
	Success  bool          `json:"success"`
	Total    int           `json:"total"`
	Uploaded int           `json:"uploaded"`
	Errors   int           `json:"errors"`
	Failures []SyncFailure `json:"failures,omitempty"`
	Snapshot string        `json:"snapshot,omitempty"`
}

// MediaRequest is the body of every media mutation. Older clients send the
// file as fileData, newer ones as fileBase64.
type MediaRequest struct {
	UserEmail   string `json:"userEmail"`
	Action      string `json:"action"`
	Title       string `json:"title"`
	OldTitle    string `json:"oldTitle"`
	NewTitle    string `json:"newTitle"`
	FileBase64  string `json:"fileBase64"`
	FileData    string `json:"fileData"`
	NewFileData string `json:"newFileData"`
	MimeType    string `json:"mimeType"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Payload returns the uploaded file content in whichever field it was sent.
func (r MediaRequest) Payload() string {
	if r.FileBase64 != "" {
		return r.FileBase64
	}
	return r.FileData
}

type MediaResponse struct {
	Success   bool   `json:"success"`
	Action    string `json:"action,omitempty"`
	URL       string `json:"url,omitempty"`
	PageCount int    `json:"pageCount,omitempty"`
	Error     string `json:"error,omitempty"`
}

// AuthRequest covers requestOtp, verifyOtp and updatePin.
type AuthRequest struct {
	Email      string `json:"email"`
	Code       string `json:"code"`
	OldPinHash string `json:"oldPinHash"`
	NewPinHash string `json:"newPinHash"`
	IsForgot   bool   `json:"isForgot"`
}

type AuthResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Employee *Employee `json:"employee,omitempty"`
}

// ReviewRequest approves or rejects a pending registration.
type ReviewRequest struct {
	ID         string `json:"id"`
	AdminEmail string `json:"adminEmail"`
	Reason     string `json:"reason"`
}
