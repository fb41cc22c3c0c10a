package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/Daskott/agenda/colors"
	"github.com/Daskott/agenda/server/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JOB_NAME       = "backupSqliteDb"
	UPLOAD_TIMEOUT = 5 * time.Minute
)

// Uploader stores a local file as 'object' in 'bucket'
type Uploader interface {
	Upload(ctx context.Context, bucket, object, filePath string) error
}

// Backup takes encrypted snapshots of the sqlite db and ships them to object storage
type Backup struct {
	db         *gorm.DB
	passPhrase string
	uploader   Uploader
	bucket     string
	prefix     string
	now        func() time.Time
	logg       *zap.SugaredLogger
}

func New(db *gorm.DB, passPhrase string, uploader Uploader, bucket, prefix string, logg *zap.SugaredLogger) *Backup {
	if logg == nil {
		logg = logger.NewLogger()
	}

	return &Backup{
		db:         db,
		passPhrase: passPhrase,
		uploader:   uploader,
		bucket:     bucket,
		prefix:     prefix,
		now:        time.Now,
		logg:       logg,
	}
}

// Handler is the worker pool entry point for JOB_NAME
func (b *Backup) Handler(args map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), UPLOAD_TIMEOUT)
	defer cancel()

	_, err := b.Run(ctx)
	return err
}

// Run snapshots the db into a temp file encrypted with the db pass phrase,
// uploads it & returns the object name.
func (b *Backup) Run(ctx context.Context) (string, error) {
	tmpFile, err := os.CreateTemp("", "agenda-backup-*.db")
	if err != nil {
		return "", err
	}
	snapshotPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(snapshotPath)

	if err := b.snapshot(ctx, snapshotPath); err != nil {
		return "", fmt.Errorf("snapshot failed: %v", err)
	}

	object := b.objectName()
	if err := b.uploader.Upload(ctx, b.bucket, object, snapshotPath); err != nil {
		return "", fmt.Errorf("upload failed: %v", err)
	}

	b.logg.Infof("%vuploaded %v to bucket %v", colors.Tag(colors.Green, "backup"), object, b.bucket)
	return object, nil
}

// snapshot exports the live db into 'destPath'. ATTACH only applies to the
// connection it runs on, so every statement shares one dedicated connection.
func (b *Backup) snapshot(ctx context.Context, destPath string) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS backup KEY ?", destPath, b.passPhrase); err != nil {
		return err
	}

	_, exportErr := conn.ExecContext(ctx, "SELECT sqlcipher_export('backup')")
	_, detachErr := conn.ExecContext(ctx, "DETACH DATABASE backup")

	if exportErr != nil {
		return exportErr
	}
	return detachErr
}

func (b *Backup) objectName() string {
	return path.Join(b.prefix, fmt.Sprintf("agenda-%v.db", b.now().UTC().Format("20060102T150405Z")))
}
