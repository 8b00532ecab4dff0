package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/shelf/internal/cli/output"
	"github.com/marmos91/shelf/internal/cli/timeutil"
	"github.com/marmos91/shelf/pkg/config"
)

var uploadsOutput string

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Inspect multipart uploads",
}

var uploadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List in-flight multipart uploads",
	Long: `List every multipart upload registered in the catalog that has not
been completed or aborted yet. Abandoned uploads hold part files on disk
until they are explicitly aborted.

Examples:
  # Table of in-flight uploads
  shelf uploads list

  # Machine-readable output
  shelf uploads list -o json`,
	RunE: runUploadsList,
}

func init() {
	uploadsListCmd.Flags().StringVarP(&uploadsOutput, "output", "o", "table", "Output format: table, json, yaml")
	uploadsCmd.AddCommand(uploadsListCmd)
}

// uploadRow is one row of `shelf uploads list`.
type uploadRow struct {
	UploadID  string    `json:"upload_id" yaml:"upload_id"`
	Bucket    string    `json:"bucket" yaml:"bucket"`
	Key       string    `json:"key" yaml:"key"`
	Started   time.Time `json:"started" yaml:"started"`
	Age       string    `json:"age" yaml:"age"`
	PartCount int       `json:"part_count" yaml:"part_count"`
}

// uploadTable renders upload rows as a table.
type uploadTable []uploadRow

func (uploadTable) Headers() []string {
	return []string{"Upload ID", "Bucket", "Key", "Age", "Parts"}
}

func (t uploadTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, u := range t {
		rows = append(rows, []string{u.UploadID, u.Bucket, u.Key, u.Age, strconv.Itoa(u.PartCount)})
	}
	return rows
}

func runUploadsList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(uploadsOutput)
	if err != nil {
		return err
	}

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cat, err := config.OpenCatalog(ctx, cfg.Datasource)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = cat.Close() }()

	uploads, err := cat.ListMultipartUploads(ctx)
	if err != nil {
		return fmt.Errorf("failed to list uploads: %w", err)
	}

	rows := make(uploadTable, 0, len(uploads))
	for _, upload := range uploads {
		parts, err := cat.ListParts(ctx, upload.UploadID)
		if err != nil {
			return fmt.Errorf("failed to list parts of %s: %w", upload.UploadID, err)
		}
		rows = append(rows, uploadRow{
			UploadID:  upload.UploadID,
			Bucket:    upload.Bucket,
			Key:       upload.Key,
			Started:   upload.LastModified,
			Age:       timeutil.FormatAge(upload.LastModified),
			PartCount: len(parts),
		})
	}

	if len(rows) == 0 && format == output.FormatTable {
		fmt.Println("No multipart uploads in flight.")
		return nil
	}

	printer := output.NewPrinter(os.Stdout, format, true)
	return printer.Print(rows)
}
