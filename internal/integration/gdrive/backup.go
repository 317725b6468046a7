// Package gdrive provides an optional adapter that backs agent files
// up to a Google Drive folder alongside the local tool integrations.
package gdrive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"myai/internal/agent"
	"myai/internal/auth"
	"myai/internal/logger"
	"myai/internal/model"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
)

const folderMime = "application/vnd.google-apps.folder"

// BackupAdapter uploads agent markdown into a Drive folder. It
// satisfies integration.Adapter so the scheduler treats it like any
// other tool.
type BackupAdapter struct {
	mu         sync.Mutex
	folderPath string
	svc        *drive.Service
	rootID     string
	idCache    map[string]string
}

func NewBackupAdapter(ctx context.Context, folderPath string) (*BackupAdapter, error) {
	svc, err := auth.NewDriveService(ctx)
	if err != nil {
		return nil, err
	}

	b := &BackupAdapter{
		folderPath: strings.Trim(folderPath, "/"),
		svc:        svc,
		idCache:    make(map[string]string),
	}

	rootID, err := b.ensureFolderPath(b.folderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare gdrive folder: %w", err)
	}
	b.rootID = rootID

	logger.Log.Info("gdrive backup adapter ready",
		zap.String("folder", b.folderPath),
		zap.String("folder_id", rootID))

	return b, nil
}

func (b *BackupAdapter) Name() string { return "gdrive" }

// AgentDir returns "" so the watcher does not try to observe Drive.
func (b *BackupAdapter) AgentDir() string { return "" }

func (b *BackupAdapter) Sync(ctx context.Context, agents []agent.Agent) model.SyncResult {
	result := model.SyncResult{Adapter: b.Name(), Status: "ok"}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, a := range agents {
		if ctx.Err() != nil {
			result.Status = "aborted"
			result.Errors = append(result.Errors, ctx.Err().Error())
			return result
		}

		if err := b.upload(ctx, a.Path); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", a.Name, err))
			continue
		}
		result.Synced++
	}

	if len(result.Errors) > 0 {
		result.Status = "partial"
	}

	return result
}

func (b *BackupAdapter) upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	name := filepath.Base(localPath)

	existingID := b.idCache[name]
	if existingID == "" {
		existingID, _ = b.findFile(name, b.rootID)
	}

	if existingID != "" {
		if _, err := b.svc.Files.Update(existingID, &drive.File{}).Media(f).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to update file: %w", err)
		}

		b.idCache[name] = existingID
		return nil
	}

	created, err := b.svc.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{b.rootID},
	}).Media(f).Fields("id").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	b.idCache[name] = created.Id
	return nil
}

func (b *BackupAdapter) Validate(agents []agent.Agent) model.ValidationResult {
	// Remote state is not inspected on every validation pass; the
	// periodic full sync covers drift.
	return model.ValidationResult{Adapter: b.Name()}
}

func (b *BackupAdapter) Health(ctx context.Context) model.HealthResult {
	result := model.HealthResult{Adapter: b.Name(), Healthy: true}

	_, err := b.svc.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", b.rootID)).
		PageSize(1).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		result.Healthy = false
		result.Message = fmt.Sprintf("drive unreachable: %v", err)
	}

	return result
}

func (b *BackupAdapter) ensureFolderPath(folderPath string) (string, error) {
	if folderPath == "" {
		return "root", nil
	}

	parentID := "root"
	for _, part := range strings.Split(folderPath, "/") {
		id, err := b.findFolder(part, parentID)
		if err != nil {
			return "", err
		}

		if id == "" {
			id, err = b.createFolder(part, parentID)
			if err != nil {
				return "", err
			}
		}

		parentID = id
	}

	return parentID, nil
}

func (b *BackupAdapter) findFolder(name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		escapeName(name), parentID, folderMime)

	list, err := b.svc.Files.List().Q(q).Fields("files(id)").Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", nil
	}

	return list.Files[0].Id, nil
}

func (b *BackupAdapter) findFile(name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and mimeType!='%s' and trashed=false",
		escapeName(name), parentID, folderMime)

	list, err := b.svc.Files.List().Q(q).Fields("files(id)").Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", nil
	}

	return list.Files[0].Id, nil
}

func (b *BackupAdapter) createFolder(name, parentID string) (string, error) {
	created, err := b.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMime,
		Parents:  []string{parentID},
	}).Fields("id").Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}

	return created.Id, nil
}

func escapeName(name string) string {
	return strings.ReplaceAll(name, "'", `\'`)
}
