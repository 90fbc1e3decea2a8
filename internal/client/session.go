package client

import (
	"context"
	"errors"

	"filerelay/internal/upload"
)

// Session runs one batch of uploads.
type Session struct {
	Uploader  Uploader
	Rules     upload.Rules
	UI        *UI
	Clipboard Clipboard
}

// Run validates files, previews the valid ones and uploads them one at a
// time in order. A failed file never stops the batch. It returns the files
// that were attempted.
func (s *Session) Run(ctx context.Context, files []*File) []*File {
	s.UI.Previews = nil
	valid := make([]*File, 0, len(files))
	for _, f := range files {
		if err := Validate(f, s.Rules); err != nil {
			s.UI.Error("%s: %s", f.Name, s.rejection(err))
			continue
		}
		s.UI.AddPreview(f)
		valid = append(valid, f)
	}

	for _, f := range valid {
		if ctx.Err() != nil {
			break
		}
		s.uploadOne(ctx, f)
	}
	return valid
}

func (s *Session) uploadOne(ctx context.Context, f *File) {
	f.State = StateUploading
	events := make(chan ProgressEvent)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		s.UI.DisplayProgress(events)
	}()

	res, err := s.Uploader.Upload(ctx, f, events)
	<-drained

	if err != nil {
		f.State, f.Err = StateFailed, err
		s.UI.Error("Failed to upload %s: %v", f.Name, err)
		return
	}
	f.State = StateSucceeded
	s.UI.ShowResult(res)
	s.UI.Success("File %s uploaded successfully!", res.FileName)
}

// CopyURL copies the URL in the result panel.
func (s *Session) CopyURL() error {
	if s.UI.Result == nil || s.UI.Result.FileURL == "" {
		return errors.New("no URL to copy")
	}
	if err := s.Clipboard.WriteAll(s.UI.Result.FileURL); err != nil {
		s.UI.Error("Could not copy URL: %v", err)
		return err
	}
	s.UI.Success("URL copied to clipboard!")
	return nil
}

func (s *Session) rejection(err error) string {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		return "file too large, maximum is " + upload.FormatSize(s.Rules.MaxFileSize)
	case errors.Is(err, upload.ErrUnsupportedType):
		return "unsupported file type"
	default:
		return err.Error()
	}
}
