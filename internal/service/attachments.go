package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/access"
	"taskboard/internal/model"
	"taskboard/internal/objectstore"
	"taskboard/internal/store"
)

// MaxAttachmentSize bounds one uploaded file.
const MaxAttachmentSize int64 = 10 << 20

type FileInput struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

func attachmentKey(taskID uuid.UUID) string {
	return path.Join("attachments", taskID.String(), uuid.NewString())
}

// UploadAttachment stores the blob first, then records the attachment and
// its activity in one transaction. The blob is removed again if the
// transaction fails.
func (s *Service) UploadAttachment(ctx context.Context, actor, taskID uuid.UUID, in FileInput) (AttachmentResult, error) {
	name := strings.TrimSpace(path.Base(in.Name))
	if name == "" || name == "." || name == "/" {
		return AttachmentResult{}, invalid("file name is required")
	}
	if in.Size <= 0 || in.Size > MaxAttachmentSize {
		return AttachmentResult{}, invalid("file size must be between 1 and %d bytes", MaxAttachmentSize)
	}
	if in.MimeType == "" {
		in.MimeType = "application/octet-stream"
	}

	err := s.view(ctx, actor, func(u *unit) error {
		_, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		_, err = u.authorize(access.ActionUploadFile, b)
		return err
	})
	if err != nil {
		return AttachmentResult{}, err
	}

	key := attachmentKey(taskID)
	if err := s.objects.Put(ctx, key, in.Body, in.Size, in.MimeType); err != nil {
		return AttachmentResult{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var out AttachmentResult
	err = s.run(ctx, actor, func(u *unit) error {
		t, b, err := u.task(taskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionUploadFile, b); err != nil {
			return err
		}
		file := &model.Attachment{
			TaskID:    t.ID,
			UserID:    actor,
			Name:      name,
			MimeType:  in.MimeType,
			Size:      in.Size,
			ObjectKey: key,
		}
		if err := u.tx.CreateAttachment(file); err != nil {
			return err
		}
		a, err := u.record(t, model.ActivityAttachment, actUploaded, name)
		if err != nil {
			return err
		}
		out = AttachmentResult{Attachment: attachmentView(file), Activity: activityView(a)}
		return u.boardEvent(b, "attachment.added", map[string]any{"attachment": out.Attachment, "activity": out.Activity})
	})
	if err != nil {
		if rmErr := s.objects.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("key", key).Msg("failed to remove orphaned attachment")
		}
		return AttachmentResult{}, err
	}
	return out, nil
}

// OpenAttachment returns the attachment row and its blob. The caller
// closes the blob body.
func (s *Service) OpenAttachment(ctx context.Context, actor, attachmentID uuid.UUID) (AttachmentView, *objectstore.Object, error) {
	var file *model.Attachment
	err := s.view(ctx, actor, func(u *unit) error {
		var err error
		if file, err = u.tx.GetAttachment(attachmentID); err != nil {
			return lookup(err, "attachment")
		}
		_, b, err := u.task(file.TaskID)
		if err != nil {
			return err
		}
		_, err = u.authorize(access.ActionViewActivity, b)
		return err
	})
	if err != nil {
		return AttachmentView{}, nil, err
	}
	obj, err := s.objects.Get(ctx, file.ObjectKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			return AttachmentView{}, nil, notFound("attachment content")
		}
		return AttachmentView{}, nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return attachmentView(file), obj, nil
}

// DeleteAttachment removes the row and records the removal; the blob goes
// after commit.
func (s *Service) DeleteAttachment(ctx context.Context, actor, attachmentID uuid.UUID) (ActivityView, error) {
	var out ActivityView
	err := s.run(ctx, actor, func(u *unit) error {
		file, err := u.tx.GetAttachment(attachmentID)
		if err != nil {
			return lookup(err, "attachment")
		}
		t, b, err := u.task(file.TaskID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionDeleteFile, b); err != nil {
			return err
		}
		if err := u.tx.DeleteAttachment(file.ID); err != nil {
			return err
		}
		a, err := u.record(t, model.ActivityAttachment, actRemoved, file.Name)
		if err != nil {
			return err
		}
		u.removeObjects([]string{file.ObjectKey})
		out = activityView(a)
		return u.boardEvent(b, "attachment.removed", map[string]any{"attachment_id": file.ID, "activity": out})
	})
	return out, err
}

func (u *unit) taskObjectKeys(taskID uuid.UUID) ([]string, error) {
	files, err := u.tx.Attachments(taskID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.ObjectKey)
	}
	return keys, nil
}

func (u *unit) listObjectKeys(listID uuid.UUID) ([]string, error) {
	tasks, err := u.tx.Tasks(listID, store.AllRows)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, t := range tasks {
		k, err := u.taskObjectKeys(t.ID)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
	}
	return keys, nil
}

func (u *unit) boardObjectKeys(boardID uuid.UUID) ([]string, error) {
	lists, err := u.tx.Lists(boardID, store.AllRows)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, l := range lists {
		k, err := u.listObjectKeys(l.ID)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
	}
	return keys, nil
}

// removeObjects deletes blobs once the rows referencing them are gone.
func (u *unit) removeObjects(keys []string) {
	if len(keys) == 0 {
		return
	}
	s := u.s
	u.afterCommit(func() {
		for _, key := range keys {
			if err := s.objects.Remove(context.Background(), key); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("failed to remove attachment blob")
			}
		}
	})
}
