package gorm

import (
	"time"

	"github.com/marmos91/shelf/pkg/catalog"
)

// itemDetail maps the s3_item_detail table.
type itemDetail struct {
	Bucket       string    `gorm:"column:bucket;primaryKey"`
	Key          string    `gorm:"column:key;primaryKey"`
	Metadata     string    `gorm:"column:metadata;not null;default:'{}'"`
	InternalInfo string    `gorm:"column:internal_info;not null;default:'{}'"`
	LastModified time.Time `gorm:"column:last_modified;not null"`
	MD5          string    `gorm:"column:md5;not null"`
	DataLocation string    `gorm:"column:data_location;not null"`
}

func (itemDetail) TableName() string { return "s3_item_detail" }

func (m itemDetail) record() catalog.ObjectRecord {
	return catalog.ObjectRecord{
		Bucket:       m.Bucket,
		Key:          m.Key,
		Metadata:     m.Metadata,
		InternalInfo: m.InternalInfo,
		LastModified: m.LastModified,
		ETag:         m.MD5,
		DataLocation: m.DataLocation,
	}
}

// multipartUpload maps the multipart_upload table.
type multipartUpload struct {
	UploadID     string    `gorm:"column:upload_id;primaryKey"`
	Bucket       string    `gorm:"column:bucket;primaryKey"`
	Key          string    `gorm:"column:key;primaryKey"`
	LastModified time.Time `gorm:"column:last_modified;not null"`
	Metadata     string    `gorm:"column:metadata;not null;default:'{}'"`
	AccessKey    string    `gorm:"column:access_key;not null;default:''"`
}

func (multipartUpload) TableName() string { return "multipart_upload" }

func (m multipartUpload) record() catalog.MultipartRecord {
	return catalog.MultipartRecord{
		UploadID:     m.UploadID,
		Bucket:       m.Bucket,
		Key:          m.Key,
		LastModified: m.LastModified,
		Metadata:     m.Metadata,
		AccessKey:    m.AccessKey,
	}
}

// multipartUploadPart maps the multipart_upload_part table.
type multipartUploadPart struct {
	UploadID     string    `gorm:"column:upload_id;primaryKey"`
	PartNumber   int       `gorm:"column:part_number;primaryKey"`
	LastModified time.Time `gorm:"column:last_modified;not null"`
	MD5          string    `gorm:"column:md5;not null"`
	DataLocation string    `gorm:"column:data_location;not null"`
}

func (multipartUploadPart) TableName() string { return "multipart_upload_part" }

func (m multipartUploadPart) record() catalog.PartRecord {
	return catalog.PartRecord{
		UploadID:     m.UploadID,
		PartNumber:   m.PartNumber,
		LastModified: m.LastModified,
		MD5:          m.MD5,
		DataLocation: m.DataLocation,
	}
}

// allModels returns every model for AutoMigrate.
func allModels() []any {
	return []any{
		&itemDetail{},
		&multipartUpload{},
		&multipartUploadPart{},
	}
}
