package uploads

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightpath/casedesk/internal/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		FileServerBaseURL:      baseURL,
		FileServerDeleteRoute:  "/delete-file",
		FileServerDeleteMethod: "POST",
		UploadTimeout:          5 * time.Second,
		DeleteTimeout:          5 * time.Second,
	}
}

func TestUpload_Success(t *testing.T) {
	var gotQuery map[string]string
	var gotFileField []byte
	var gotFileName string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upload-manual", r.URL.Path)
		gotQuery = map[string]string{
			"userId":        r.URL.Query().Get("userId"),
			"applicationId": r.URL.Query().Get("applicationId"),
			"fileType":      r.URL.Query().Get("fileType"),
		}

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename
		gotFileField, err = io.ReadAll(file)
		require.NoError(t, err)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"fileInfo": map[string]interface{}{
				"fileUrl":  "files/user-1/doc.pdf",
				"fullUrl":  "http://files.local/files/user-1/doc.pdf",
				"fileName": "doc.pdf",
				"fileSize": 3,
				"mimetype": "application/pdf",
			},
		})
	}))
	defer server.Close()

	client := NewFileServerClient(testConfig(server.URL))
	info, err := client.Upload(context.Background(), "user-1", "case-9", "visa_applicationLetter", "doc.pdf", "application/pdf", []byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, "user-1", gotQuery["userId"])
	assert.Equal(t, "case-9", gotQuery["applicationId"])
	assert.Equal(t, "visa_applicationLetter", gotQuery["fileType"])
	assert.Equal(t, "doc.pdf", gotFileName)
	assert.Equal(t, []byte("abc"), gotFileField)

	assert.Equal(t, "files/user-1/doc.pdf", info.FileURL)
	assert.Equal(t, "http://files.local/files/user-1/doc.pdf", info.FullURL)
	assert.Equal(t, int64(3), info.FileSize)
	assert.Equal(t, "application/pdf", info.ContentType())
}

func TestUpload_LegacyFileTypeField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Older file server deployments report mime type as "fileType".
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"fileInfo": map[string]interface{}{
				"fileUrl":  "files/x.png",
				"fileName": "x.png",
				"fileSize": 10,
				"fileType": "image/png",
			},
		})
	}))
	defer server.Close()

	client := NewFileServerClient(testConfig(server.URL))
	info, err := client.Upload(context.Background(), "u", "c", "ft", "x.png", "image/png", []byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType())
}

func TestUpload_ServerReportedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "quota exceeded"})
	}))
	defer server.Close()

	client := NewFileServerClient(testConfig(server.URL))
	_, err := client.Upload(context.Background(), "u", "c", "ft", "x.pdf", "application/pdf", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestUpload_Non2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewFileServerClient(testConfig(server.URL))
	_, err := client.Upload(context.Background(), "u", "c", "ft", "x.pdf", "application/pdf", []byte("x"))
	assert.Error(t, err)
}

func TestDelete_PostRoute(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	client := NewFileServerClient(testConfig(server.URL))
	err := client.Delete(context.Background(), "files/user-1/doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/delete-file", gotPath)
	// Both aliases are sent so any file server deployment finds the one it reads.
	assert.Equal(t, "files/user-1/doc.pdf", gotBody["filePath"])
	assert.Equal(t, "files/user-1/doc.pdf", gotBody["fileUrl"])
}

func TestDelete_ConfigurableVerbAndRoute(t *testing.T) {
	var gotMethod, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.FileServerDeleteRoute = "/file"
	cfg.FileServerDeleteMethod = "DELETE"

	client := NewFileServerClient(cfg)
	err := client.Delete(context.Background(), "files/doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/file", gotPath)
}

func TestDelete_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "not found"})
	}))
	defer server.Close()

	client := NewFileServerClient(testConfig(server.URL))
	err := client.Delete(context.Background(), "files/missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
