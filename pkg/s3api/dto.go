package s3api

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/marmos91/shelf/internal/logger"
)

// s3Namespace is the XML namespace of the 2006-03-01 S3 API.
const s3Namespace = "http://s3.amazonaws.com/doc/2006-03-01/"

// amzTime is the timestamp format used inside XML bodies.
func amzTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// quoteETag wraps an ETag in the double quotes the wire format requires.
func quoteETag(etag string) string {
	return `"` + etag + `"`
}

// writeXML serializes one response body with the XML prolog.
func writeXML(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return
	}
	if err := xml.NewEncoder(w).Encode(body); err != nil {
		logger.ErrorCtx(r.Context(), "Failed to encode response body", logger.Err(err))
	}
}

type owner struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName"`
}

type bucketEntry struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate"`
}

type listAllMyBucketsResult struct {
	XMLName xml.Name      `xml:"ListAllMyBucketsResult"`
	Xmlns   string        `xml:"xmlns,attr"`
	Owner   owner         `xml:"Owner"`
	Buckets []bucketEntry `xml:"Buckets>Bucket"`
}

type locationConstraint struct {
	XMLName  xml.Name `xml:"LocationConstraint"`
	Xmlns    string   `xml:"xmlns,attr"`
	Location string   `xml:",chardata"`
}

type objectEntry struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

// listBucketResult covers both listing versions; V2-only and V1-only fields
// are pointers so the inactive ones stay off the wire.
type listBucketResult struct {
	XMLName      xml.Name      `xml:"ListBucketResult"`
	Xmlns        string        `xml:"xmlns,attr"`
	Name         string        `xml:"Name"`
	Prefix       string        `xml:"Prefix"`
	Delimiter    string        `xml:"Delimiter,omitempty"`
	EncodingType string        `xml:"EncodingType,omitempty"`
	MaxKeys      int           `xml:"MaxKeys"`
	IsTruncated  bool          `xml:"IsTruncated"`
	KeyCount     *int          `xml:"KeyCount,omitempty"`
	Marker       *string       `xml:"Marker,omitempty"`
	Contents     []objectEntry `xml:"Contents"`
}

type initiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Xmlns    string   `xml:"xmlns,attr"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

type partEntry struct {
	PartNumber   int    `xml:"PartNumber"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
}

type listPartsResult struct {
	XMLName  xml.Name    `xml:"ListPartsResult"`
	Xmlns    string      `xml:"xmlns,attr"`
	Bucket   string      `xml:"Bucket"`
	Key      string      `xml:"Key"`
	UploadID string      `xml:"UploadId"`
	Parts    []partEntry `xml:"Part"`
}

// completeMultipartUpload is the request body of CompleteMultipartUpload.
type completeMultipartUpload struct {
	XMLName xml.Name `xml:"CompleteMultipartUpload"`
	Parts   []struct {
		PartNumber int    `xml:"PartNumber"`
		ETag       string `xml:"ETag"`
	} `xml:"Part"`
}

type completeMultipartUploadResult struct {
	XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
	Xmlns    string   `xml:"xmlns,attr"`
	Location string   `xml:"Location"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	ETag     string   `xml:"ETag"`
}
