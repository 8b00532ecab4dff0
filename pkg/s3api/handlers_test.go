package s3api

import (
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/shelf/pkg/catalog/memory"
	"github.com/marmos91/shelf/pkg/gateway"
)

// newTestServer runs the full router in anonymous mode over a temp root and
// an in-memory catalog.
func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	root := t.TempDir()
	gw, err := gateway.New(root, memory.New())
	if err != nil {
		t.Fatalf("gateway.New() failed: %v", err)
	}

	server := httptest.NewServer(NewRouter(gw, Config{}, nil))
	t.Cleanup(server.Close)
	return server, root
}

func request(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(raw)
}

func TestPutGetRoundTrip(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := request(t, http.MethodPut, server.URL+"/docs/readme.txt", "hello")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("ETag"); got != `"5d41402abc4b2a76b9719d911017c592"` {
		t.Errorf("ETag = %q, want quoted hello MD5", got)
	}
	if resp.Header.Get("X-Amz-Request-Id") == "" {
		t.Error("X-Amz-Request-Id header missing")
	}

	resp, body := request(t, http.MethodGet, server.URL+"/docs/readme.txt", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", resp.StatusCode)
	}
	if body != "hello" {
		t.Errorf("body = %q, want hello", body)
	}
	if resp.Header.Get("Accept-Ranges") != "bytes" {
		t.Error("Accept-Ranges header missing")
	}
	if resp.Header.Get("Last-Modified") == "" {
		t.Error("Last-Modified header missing")
	}
}

func TestUserMetadataHeadersRoundTrip(t *testing.T) {
	server, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut, server.URL+"/docs/tagged.txt", strings.NewReader("x"))
	req.Header.Set("X-Amz-Meta-Author", "ops")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", resp.StatusCode)
	}

	resp, _ = request(t, http.MethodHead, server.URL+"/docs/tagged.txt", "")
	if got := resp.Header.Get("X-Amz-Meta-Author"); got != "ops" {
		t.Errorf("X-Amz-Meta-Author = %q, want ops", got)
	}
}

func TestGetMissingObjectErrorBody(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := request(t, http.MethodGet, server.URL+"/docs/absent.txt", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	var errBody errorResponse
	if err := xml.Unmarshal([]byte(body), &errBody); err != nil {
		t.Fatalf("error body is not XML: %v\n%s", err, body)
	}
	if errBody.Code != "NoSuchKey" {
		t.Errorf("Code = %q, want NoSuchKey", errBody.Code)
	}
	if errBody.Resource != "/docs/absent.txt" {
		t.Errorf("Resource = %q, want /docs/absent.txt", errBody.Resource)
	}
	if errBody.RequestID == "" {
		t.Error("RequestId missing in error body")
	}
}

func TestRangeRequest(t *testing.T) {
	server, _ := newTestServer(t)
	request(t, http.MethodPut, server.URL+"/docs/digits.txt", "0123456789")

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/docs/digits.txt", nil)
	req.Header.Set("Range", "bytes=2-5")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", resp.StatusCode)
	}
	if string(body) != "2345" {
		t.Errorf("body = %q, want 2345", body)
	}
	if got := resp.Header.Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q, want bytes 2-5/10", got)
	}

	req.Header.Set("Range", "bytes=99-")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("unsatisfiable range status = %d, want 416", resp.StatusCode)
	}
}

func TestDirectoryKeyPut(t *testing.T) {
	server, root := newTestServer(t)

	resp, _ := request(t, http.MethodPut, server.URL+"/docs/archive/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dir PUT status = %d, want 200", resp.StatusCode)
	}
	if info, err := os.Stat(filepath.Join(root, "docs", "archive")); err != nil || !info.IsDir() {
		t.Error("directory was not created")
	}

	resp, body := request(t, http.MethodPut, server.URL+"/docs/archive/", "payload")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("dir PUT with body status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(body, "UnexpectedContent") {
		t.Errorf("body = %q, want UnexpectedContent", body)
	}
}

func TestEncodedKeySeparator(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := request(t, http.MethodPut, server.URL+"/docs/a%2Fb.txt", "nested")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", resp.StatusCode)
	}

	// The encoded separator decodes into a real one: same object either way.
	resp, body := request(t, http.MethodGet, server.URL+"/docs/a/b.txt", "")
	if resp.StatusCode != http.StatusOK || body != "nested" {
		t.Fatalf("GET decoded path = %d %q, want 200 nested", resp.StatusCode, body)
	}
}

func TestListObjectsV2Response(t *testing.T) {
	server, _ := newTestServer(t)
	request(t, http.MethodPut, server.URL+"/docs/logs/a.log", "aaa")
	request(t, http.MethodPut, server.URL+"/docs/logs/b.log", "bb")
	request(t, http.MethodPut, server.URL+"/docs/readme.txt", "r")

	resp, body := request(t, http.MethodGet, server.URL+"/docs?list-type=2&prefix=logs%2F&delimiter=%2F", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result struct {
		Name        string `xml:"Name"`
		Prefix      string `xml:"Prefix"`
		Delimiter   string `xml:"Delimiter"`
		KeyCount    int    `xml:"KeyCount"`
		MaxKeys     int    `xml:"MaxKeys"`
		IsTruncated bool   `xml:"IsTruncated"`
		Contents    []struct {
			Key  string `xml:"Key"`
			Size int64  `xml:"Size"`
			ETag string `xml:"ETag"`
		} `xml:"Contents"`
	}
	if err := xml.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("response is not XML: %v\n%s", err, body)
	}

	if result.Name != "docs" || result.Prefix != "logs/" || result.Delimiter != "/" {
		t.Errorf("echo fields = %q %q %q", result.Name, result.Prefix, result.Delimiter)
	}
	if result.KeyCount != 2 || result.MaxKeys != 2 {
		t.Errorf("KeyCount/MaxKeys = %d/%d, want 2/2", result.KeyCount, result.MaxKeys)
	}
	if len(result.Contents) != 2 || result.Contents[0].Key != "logs/a.log" {
		t.Errorf("Contents = %v", result.Contents)
	}
	if result.Contents[0].Size != 3 {
		t.Errorf("Size = %d, want 3", result.Contents[0].Size)
	}
	if !strings.HasPrefix(result.Contents[0].ETag, `"`) {
		t.Errorf("ETag %q is not quoted", result.Contents[0].ETag)
	}
}

func TestListBucketsResponse(t *testing.T) {
	server, _ := newTestServer(t)
	request(t, http.MethodPut, server.URL+"/alpha/a.txt", "a")
	request(t, http.MethodPut, server.URL+"/beta/b.txt", "b")

	resp, body := request(t, http.MethodGet, server.URL+"/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result struct {
		Buckets []struct {
			Name         string `xml:"Name"`
			CreationDate string `xml:"CreationDate"`
		} `xml:"Buckets>Bucket"`
	}
	if err := xml.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("response is not XML: %v\n%s", err, body)
	}
	if len(result.Buckets) != 2 || result.Buckets[0].Name != "alpha" || result.Buckets[1].Name != "beta" {
		t.Errorf("buckets = %v", result.Buckets)
	}
	if result.Buckets[0].CreationDate == "" {
		t.Error("CreationDate missing")
	}
}

func TestHeadBucketStatus(t *testing.T) {
	server, _ := newTestServer(t)
	request(t, http.MethodPut, server.URL+"/docs/x.txt", "x")

	resp, _ := request(t, http.MethodHead, server.URL+"/docs", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("HEAD existing bucket = %d, want 200", resp.StatusCode)
	}

	resp, _ = request(t, http.MethodHead, server.URL+"/absent", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("HEAD missing bucket = %d, want 404", resp.StatusCode)
	}
}

func TestGetBucketLocation(t *testing.T) {
	server, _ := newTestServer(t)
	request(t, http.MethodPut, server.URL+"/docs/x.txt", "x")

	resp, body := request(t, http.MethodGet, server.URL+"/docs?location", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "LocationConstraint") {
		t.Errorf("body = %q, want LocationConstraint element", body)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	server, _ := newTestServer(t)
	request(t, http.MethodPut, server.URL+"/docs/x.txt", "x")

	resp, body := request(t, http.MethodDelete, server.URL+"/docs/x.txt", "")
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("DELETE object = %d, want 501", resp.StatusCode)
	}
	if !strings.Contains(body, codeNotImplemented) {
		t.Errorf("body = %q, want NotImplemented", body)
	}

	resp, _ = request(t, http.MethodPut, server.URL+"/newbucket", "")
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("CreateBucket = %d, want 501", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPut, server.URL+"/docs/copy.txt", nil)
	req.Header.Set("X-Amz-Copy-Source", "/docs/x.txt")
	copyResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, copyResp.Body)
	copyResp.Body.Close()
	if copyResp.StatusCode != http.StatusNotImplemented {
		t.Errorf("CopyObject = %d, want 501", copyResp.StatusCode)
	}
}

func TestMultipartOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	request(t, http.MethodPut, server.URL+"/videos/seed.txt", "seed")

	resp, body := request(t, http.MethodPost, server.URL+"/videos/movie.mp4?uploads", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initiate status = %d, want 200\n%s", resp.StatusCode, body)
	}
	var initiate struct {
		Bucket   string `xml:"Bucket"`
		Key      string `xml:"Key"`
		UploadID string `xml:"UploadId"`
	}
	if err := xml.Unmarshal([]byte(body), &initiate); err != nil {
		t.Fatalf("initiate body is not XML: %v", err)
	}
	if initiate.Bucket != "videos" || initiate.Key != "movie.mp4" || initiate.UploadID == "" {
		t.Fatalf("initiate = %+v", initiate)
	}

	resp, _ = request(t, http.MethodPut,
		server.URL+"/videos/movie.mp4?partNumber=1&uploadId="+initiate.UploadID, "hello ")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("ETag") == "" {
		t.Fatalf("part 1 status = %d, etag %q", resp.StatusCode, resp.Header.Get("ETag"))
	}
	resp, _ = request(t, http.MethodPut,
		server.URL+"/videos/movie.mp4?partNumber=2&uploadId="+initiate.UploadID, "world")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("part 2 status = %d", resp.StatusCode)
	}

	resp, body = request(t, http.MethodGet,
		server.URL+"/videos/movie.mp4?uploadId="+initiate.UploadID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list parts status = %d", resp.StatusCode)
	}
	var listed struct {
		Parts []struct {
			PartNumber int   `xml:"PartNumber"`
			Size       int64 `xml:"Size"`
		} `xml:"Part"`
	}
	if err := xml.Unmarshal([]byte(body), &listed); err != nil {
		t.Fatalf("list parts body is not XML: %v", err)
	}
	if len(listed.Parts) != 2 || listed.Parts[0].Size != 6 {
		t.Fatalf("parts = %v", listed.Parts)
	}

	completion := `<CompleteMultipartUpload>` +
		`<Part><PartNumber>1</PartNumber></Part>` +
		`<Part><PartNumber>2</PartNumber></Part>` +
		`</CompleteMultipartUpload>`
	resp, body = request(t, http.MethodPost,
		server.URL+"/videos/movie.mp4?uploadId="+initiate.UploadID, completion)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d\n%s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `"5eb63bbbe01eeed093cb22bb8f5acdc3"`) {
		t.Errorf("complete body = %q, want hello world MD5", body)
	}

	resp, body = request(t, http.MethodGet, server.URL+"/videos/movie.mp4", "")
	if resp.StatusCode != http.StatusOK || body != "hello world" {
		t.Fatalf("final GET = %d %q", resp.StatusCode, body)
	}
}

func TestAbortOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	request(t, http.MethodPut, server.URL+"/videos/seed.txt", "seed")

	_, body := request(t, http.MethodPost, server.URL+"/videos/movie.mp4?uploads", "")
	var initiate struct {
		UploadID string `xml:"UploadId"`
	}
	if err := xml.Unmarshal([]byte(body), &initiate); err != nil {
		t.Fatal(err)
	}
	request(t, http.MethodPut,
		server.URL+"/videos/movie.mp4?partNumber=1&uploadId="+initiate.UploadID, "bytes")

	resp, _ := request(t, http.MethodDelete,
		server.URL+"/videos/movie.mp4?uploadId="+initiate.UploadID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("abort status = %d, want 204", resp.StatusCode)
	}

	resp, _ = request(t, http.MethodGet, server.URL+"/videos/movie.mp4", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after abort = %d, want 404", resp.StatusCode)
	}
}
