package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"brightpath/casedesk/internal/config"
)

// FileInfo is the descriptor the file server returns for a stored file.
// Older deployments report the mime type under "fileType" instead of
// "mimetype"; ContentType resolves whichever came back.
type FileInfo struct {
	FileURL        string `json:"fileUrl"`
	FullURL        string `json:"fullUrl"`
	FileName       string `json:"fileName"`
	FileSize       int64  `json:"fileSize"`
	Mimetype       string `json:"mimetype"`
	LegacyFileType string `json:"fileType"`
}

// ContentType returns the reported mime type regardless of which field the
// server populated.
func (f *FileInfo) ContentType() string {
	if f.Mimetype != "" {
		return f.Mimetype
	}
	return f.LegacyFileType
}

// uploadResponse is the envelope for both upload and delete calls.
type uploadResponse struct {
	Success  bool      `json:"success"`
	Error    string    `json:"error"`
	FileInfo *FileInfo `json:"fileInfo"`
}

// IFileServerClient is the single interface behind the upload microservice.
// The literal delete route and verb vary across deployments; that variance is
// configuration, not code branching at call sites.
type IFileServerClient interface {
	Upload(ctx context.Context, userID, caseID, fileType, fileName, mimeType string, data []byte) (*FileInfo, error)
	Delete(ctx context.Context, fileURL string) error
}

// fileServerClient implements IFileServerClient over HTTP.
type fileServerClient struct {
	cfg          *config.Config
	uploadClient *http.Client
	deleteClient *http.Client
}

// NewFileServerClient creates a client for the companion file server.
func NewFileServerClient(cfg *config.Config) IFileServerClient {
	return &fileServerClient{
		cfg:          cfg,
		uploadClient: &http.Client{Timeout: cfg.UploadTimeout},
		deleteClient: &http.Client{Timeout: cfg.DeleteTimeout},
	}
}

// Upload posts the file as multipart form data to /upload-manual. userID,
// caseID and fileType ride along as query parameters so the server can
// namespace its storage.
func (c *fileServerClient) Upload(ctx context.Context, userID, caseID, fileType, fileName, mimeType string, data []byte) (*FileInfo, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	query := url.Values{}
	query.Set("userId", userID)
	query.Set("applicationId", caseID)
	query.Set("fileType", fileType)
	endpoint := strings.TrimRight(c.cfg.FileServerBaseURL, "/") + "/upload-manual?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		log.Printf("Error calling file server upload for case %s: %v", caseID, err)
		return nil, fmt.Errorf("failed to contact file server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file server response: %w", err)
	}

	var parsed uploadResponse
	if jsonErr := json.Unmarshal(respBody, &parsed); jsonErr != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("unparseable file server response (status %d): %w", resp.StatusCode, jsonErr)
	}

	if resp.StatusCode >= 300 || !parsed.Success {
		message := parsed.Error
		if message == "" {
			message = fmt.Sprintf("file server returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("upload rejected: %s", message)
	}
	if parsed.FileInfo == nil {
		return nil, fmt.Errorf("file server reported success without file info")
	}
	return parsed.FileInfo, nil
}

// Delete asks the file server to remove a stored file. The route and HTTP
// verb come from configuration because the server's deployments disagree on
// both ("/delete-file", "/file-delete", or DELETE /file).
func (c *fileServerClient) Delete(ctx context.Context, fileURL string) error {
	payload, err := json.Marshal(map[string]string{
		"filePath": fileURL,
		"fileUrl":  fileURL,
	})
	if err != nil {
		return fmt.Errorf("failed to encode delete request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.FileServerBaseURL, "/") + c.cfg.FileServerDeleteRoute
	req, err := http.NewRequestWithContext(ctx, c.cfg.FileServerDeleteMethod, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.deleteClient.Do(req)
	if err != nil {
		log.Printf("Error calling file server delete for %s: %v", fileURL, err)
		return fmt.Errorf("failed to contact file server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read file server response: %w", err)
	}

	var parsed uploadResponse
	if jsonErr := json.Unmarshal(respBody, &parsed); jsonErr != nil && resp.StatusCode < 300 {
		return fmt.Errorf("unparseable file server response (status %d): %w", resp.StatusCode, jsonErr)
	}

	if resp.StatusCode >= 300 || !parsed.Success {
		message := parsed.Error
		if message == "" {
			message = fmt.Sprintf("file server returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("delete rejected: %s", message)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
