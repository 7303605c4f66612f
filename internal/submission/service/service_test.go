package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks BlobStore,Forwarder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aieni/internal/apiclient"
	blobmemory "aieni/internal/blob/memory"
	"aieni/internal/export"
	"aieni/internal/listing"
	"aieni/internal/notify"
	"aieni/internal/records"
	"aieni/internal/storage"
	"aieni/internal/storage/memory"
	"aieni/internal/submission"
	"aieni/internal/submission/metrics"
	"aieni/internal/submission/service/mocks"
	dErrors "aieni/pkg/domain-errors"
)

var fixedNow = time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)

// switchableKV fails writes on demand.
type switchableKV struct {
	*memory.Store
	failSet bool
}

func (k *switchableKV) Set(ctx context.Context, key string, value []byte) error {
	if k.failSet {
		return errors.New("write refused")
	}
	return k.Store.Set(ctx, key, value)
}

func (k *switchableKV) Mutate(ctx context.Context, key string, fn storage.MutateFunc) error {
	return k.Store.Mutate(ctx, key, func(v []byte, ok bool) ([]byte, error) {
		next, err := fn(v, ok)
		if err == nil && next != nil && k.failSet {
			return nil, errors.New("write refused")
		}
		return next, err
	})
}

type captureDownloader struct {
	filename, mime, content string
	err                     error
}

func (d *captureDownloader) Download(_ context.Context, filename, mimeType, content string) error {
	d.filename, d.mime, d.content = filename, mimeType, content
	return d.err
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	kv       *switchableKV
	store    *records.Store[submission.Abstract]
	blobs    *blobmemory.Store
	notes    *notify.Recorder
	service  *Service
	clockNow time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = &switchableKV{Store: memory.New()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = records.New(s.kv, submission.Codec, logger)
	s.blobs = blobmemory.New()
	s.notes = notify.NewRecorder(20)
	s.clockNow = fixedNow
	s.service = New(s.store, s.blobs, s.notes,
		WithLogger(logger),
		WithMetrics(metrics.NewWith(prometheus.NewRegistry())),
		WithClock(func() time.Time { return s.clockNow }))
}

func validRequest() *submission.SubmitRequest {
	return &submission.SubmitRequest{
		FullName:    "Dr. Maria Garcia",
		Email:       " Maria.Garcia@TechCorp.com ",
		Institution: "Barcelona Tech Institute",
		Country:     "Spain",
		CoAuthors:   submission.CoAuthors{"Dr. Carlos Martinez"},
	}
}

func validUpload() *submission.Upload {
	return &submission.Upload{Name: "autonomous-vehicles-rl.docx", ContentType: submission.MimeDocx, Data: []byte("docx")}
}

func (s *ServiceSuite) lastNote() notify.Notification {
	n, ok := s.notes.Last()
	s.Require().True(ok, "expected a notification")
	return n
}

func (s *ServiceSuite) seed(as ...submission.Abstract) {
	s.Require().NoError(s.store.Replace(s.ctx, as))
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("stores record and document", func() {
		rec, err := s.service.Submit(s.ctx, validRequest(), validUpload())

		s.Require().NoError(err)
		s.Equal(fmt.Sprintf("ABS-%d", fixedNow.UnixMilli()), rec.ID)
		s.Equal("maria.garcia@techcorp.com", rec.Email)
		s.Equal("autonomous-vehicles-rl", rec.Title)
		s.Equal("Garcia", rec.LastName)
		s.Equal("0.00 MB", rec.FileSize)
		s.Equal(submission.StatusPending, rec.Status)
		s.Regexp(`^abstracts/[0-9a-f-]{36}/autonomous-vehicles-rl\.docx$`, rec.FileKey)
		s.Equal(1, s.blobs.Len())
		_, err = s.blobs.Get(s.ctx, rec.FileKey)
		s.Require().NoError(err)

		stored, err := s.store.Find(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(rec.FileKey, stored.FileKey)

		n := s.lastNote()
		s.Equal(notify.KindSuccess, n.Kind)
		s.Contains(n.Message, rec.ID)
	})

	s.Run("same millisecond takes the next free id", func() {
		rec, err := s.service.Submit(s.ctx, validRequest(), validUpload())
		s.Require().NoError(err)
		s.Equal(fmt.Sprintf("ABS-%d", fixedNow.UnixMilli()+1), rec.ID)
	})
}

func (s *ServiceSuite) TestSubmitValidation() {
	cases := []struct {
		name   string
		req    *submission.SubmitRequest
		upload *submission.Upload
		title  string
		kind   notify.Kind
	}{
		{"missing institution", &submission.SubmitRequest{FullName: "A", Email: "a@b.co", Country: "X"}, validUpload(), "Validation Error", notify.KindError},
		{"wrong file type", validRequest(), &submission.Upload{Name: "paper.pdf", ContentType: "application/pdf"}, "Invalid File Type", notify.KindError},
		{"file too large", validRequest(), &submission.Upload{Name: "paper.doc", Data: make([]byte, submission.MaxFileBytes+1)}, "File Too Large", notify.KindWarning},
		{"no file", validRequest(), nil, "Validation Error", notify.KindError},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Submit(s.ctx, tc.req, tc.upload)

			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			all, _ := s.store.Load(s.ctx)
			s.Empty(all)
			s.Zero(s.blobs.Len())
			n := s.lastNote()
			s.Equal(tc.title, n.Title)
			s.Equal(tc.kind, n.Kind)
		})
	}
}

func (s *ServiceSuite) TestSubmitRemovesDocumentWhenStoreFails() {
	s.kv.failSet = true

	_, err := s.service.Submit(s.ctx, validRequest(), validUpload())

	s.Require().Error(err)
	s.Zero(s.blobs.Len())
	s.Equal("Submission Failed", s.lastNote().Title)
}

func (s *ServiceSuite) TestSubmitBlobFailureLeavesStoreUntouched() {
	ctrl := gomock.NewController(s.T())
	blobs := mocks.NewMockBlobStore(ctrl)
	blobs.EXPECT().Put(gomock.Any(), gomock.Any(), submission.MimeDocx, []byte("docx")).Return(errors.New("bucket gone"))
	svc := New(s.store, blobs, s.notes, WithClock(func() time.Time { return fixedNow }))

	_, err := svc.Submit(s.ctx, validRequest(), validUpload())

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	all, _ := s.store.Load(s.ctx)
	s.Empty(all)
}

// blockingBlobs holds Put until release is closed.
type blockingBlobs struct {
	*blobmemory.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBlobs) Put(ctx context.Context, key, contentType string, data []byte) error {
	close(b.entered)
	<-b.release
	return b.Store.Put(ctx, key, contentType, data)
}

func (s *ServiceSuite) TestSlowUploadDoesNotBlockReads() {
	blobs := &blockingBlobs{Store: blobmemory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := New(s.store, blobs, s.notes, WithClock(func() time.Time { return fixedNow }))
	s.seed(s.abstracts(2)...)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(s.ctx, validRequest(), validUpload())
		done <- err
	}()
	<-blobs.entered

	loaded := make(chan int, 1)
	go func() {
		all, _ := s.store.Load(s.ctx)
		loaded <- len(all)
	}()
	select {
	case n := <-loaded:
		s.Equal(2, n)
	case <-time.After(2 * time.Second):
		s.Fail("Load waited for the upload")
	}

	close(blobs.release)
	s.Require().NoError(<-done)
	all, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *ServiceSuite) TestSeedRemovesReplacedDocuments() {
	rec, err := s.service.Submit(s.ctx, validRequest(), validUpload())
	s.Require().NoError(err)
	s.Require().Equal(1, s.blobs.Len())

	s.Require().NoError(s.service.Seed(s.ctx, s.abstracts(3)))

	s.Zero(s.blobs.Len())
	_, err = s.store.Find(s.ctx, rec.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSubmitForwarded() {
	ctrl := gomock.NewController(s.T())
	fwd := mocks.NewMockForwarder(ctrl)
	svc := New(s.store, s.blobs, s.notes, WithForwarder(fwd), WithClock(func() time.Time { return fixedNow }))

	s.Run("remote id is returned and nothing is stored locally", func() {
		fwd.EXPECT().
			SubmitForm(gomock.Any(), apiclient.EndpointSubmitAbstract, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, data any, f *apiclient.File) (apiclient.SubmitResult, error) {
				s.Equal("word_file", f.Field)
				s.Equal("maria.garcia@techcorp.com", data.(*submission.SubmitRequest).Email)
				return apiclient.SubmitResult{ID: "REMOTE-7"}, nil
			})

		rec, err := svc.Submit(s.ctx, validRequest(), validUpload())

		s.Require().NoError(err)
		s.Equal("REMOTE-7", rec.ID)
		all, _ := s.store.Load(s.ctx)
		s.Empty(all)
		s.Zero(s.blobs.Len())
	})

	s.Run("transport failure aborts with a generic message", func() {
		fwd.EXPECT().SubmitForm(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(apiclient.SubmitResult{}, dErrors.New(dErrors.CodeTransport, "backend request failed"))

		_, err := svc.Submit(s.ctx, validRequest(), validUpload())

		s.True(dErrors.HasCode(err, dErrors.CodeTransport))
		n := s.lastNote()
		s.Equal(notify.KindError, n.Kind)
		s.Equal("Submission Failed", n.Title)
	})
}

func (s *ServiceSuite) TestUpdateStatus() {
	s.seed(submission.Abstract{ID: "ABS-1", FullName: "Dr. Raj Kumar", Status: submission.StatusPending})

	s.Run("accept", func() {
		out, err := s.service.UpdateStatus(s.ctx, "ABS-1", "Accepted")
		s.Require().NoError(err)
		s.Equal(records.OutcomeUpdated, out)
		n := s.lastNote()
		s.Equal("Submission Accepted", n.Title)
		s.Equal("Submission by Dr. Raj Kumar has been accepted.", n.Message)
	})

	s.Run("same status is a no-op", func() {
		out, err := s.service.UpdateStatus(s.ctx, "ABS-1", "Accepted")
		s.Require().NoError(err)
		s.Equal(records.OutcomeUnchanged, out)
		n := s.lastNote()
		s.Equal(notify.KindInfo, n.Kind)
		s.Equal("No Change", n.Title)
	})

	s.Run("reject", func() {
		_, err := s.service.UpdateStatus(s.ctx, "ABS-1", "Rejected")
		s.Require().NoError(err)
		s.Equal(notify.KindWarning, s.lastNote().Kind)
	})

	s.Run("unknown status", func() {
		_, err := s.service.UpdateStatus(s.ctx, "ABS-1", "Withdrawn")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown id", func() {
		_, err := s.service.UpdateStatus(s.ctx, "ABS-404", "Accepted")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("Update Failed", s.lastNote().Title)
	})

	s.Run("failed write keeps the previous status", func() {
		s.kv.failSet = true
		defer func() { s.kv.failSet = false }()

		_, err := s.service.UpdateStatus(s.ctx, "ABS-1", "Pending Review")

		s.Require().Error(err)
		got, _ := s.store.Find(s.ctx, "ABS-1")
		s.Equal(submission.StatusRejected, got.Status)
	})
}

func (s *ServiceSuite) abstracts(n int) []submission.Abstract {
	out := make([]submission.Abstract, n)
	for i := range out {
		out[i] = submission.Abstract{
			ID:          fmt.Sprintf("ABS-%02d", i+1),
			FullName:    fmt.Sprintf("Author %02d", i+1),
			Email:       fmt.Sprintf("author%02d@example.org", i+1),
			Status:      submission.StatusPending,
			SubmittedAt: fixedNow.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func (s *ServiceSuite) TestList() {
	s.seed(s.abstracts(30)...)

	s.Run("second page of thirty", func() {
		view := listing.NewViewState(submission.Kind).WithSort(listing.SortDateAsc).WithPage(2)

		got, err := s.service.List(s.ctx, view)

		s.Require().NoError(err)
		s.Len(got.Items, 10)
		s.Equal("ABS-11", got.Items[0].ID)
		s.Equal(11, got.StartIndex)
		s.Equal(20, got.EndIndex)
		s.Equal(3, got.TotalPages)
		s.False(got.NoResults)
	})

	s.Run("search without matches warns", func() {
		got, err := s.service.List(s.ctx, listing.NewViewState(submission.Kind).WithSearch("zzz"))

		s.Require().NoError(err)
		s.True(got.NoResults)
		s.Empty(got.Items)
		s.Equal(0, got.TotalPages)
		s.Equal(1, got.Page.Page)
		n := s.lastNote()
		s.Equal("No Results", n.Title)
		s.Equal(notify.KindWarning, n.Kind)
	})

	s.Run("out of range page is clamped", func() {
		got, err := s.service.List(s.ctx, listing.NewViewState(submission.Kind).WithPage(99))
		s.Require().NoError(err)
		s.Equal(3, got.Page.Page)
		s.Equal(3, got.View.Page)
	})
}

func (s *ServiceSuite) TestExport() {
	s.Run("empty store still yields a header row", func() {
		d := &captureDownloader{}

		n, err := s.service.Export(s.ctx, d)

		s.Require().NoError(err)
		s.Zero(n)
		s.Equal("aieni-2026-submissions-2026-01-20.csv", d.filename)
		s.Equal(export.MimeCSV, d.mime)
		s.NotContains(d.content, "\n")
		s.True(strings.HasPrefix(d.content, `"ID","Full Name"`))
		s.Equal("No Data to Export", s.lastNote().Title)
	})

	s.Run("exports every record regardless of view", func() {
		s.seed(s.abstracts(12)...)
		d := &captureDownloader{}

		n, err := s.service.Export(s.ctx, d)

		s.Require().NoError(err)
		s.Equal(12, n)
		s.Len(strings.Split(d.content, "\n"), 13)
		s.Equal("Export Successful", s.lastNote().Title)
	})

	s.Run("download failure", func() {
		_, err := s.service.Export(s.ctx, &captureDownloader{err: errors.New("client went away")})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal("Export Failed", s.lastNote().Title)
	})
}

func (s *ServiceSuite) TestDocumentAndRemove() {
	rec, err := s.service.Submit(s.ctx, validRequest(), validUpload())
	s.Require().NoError(err)
	s.seed(rec, submission.Abstract{ID: "ABS-2", FullName: "No File"})

	doc, err := s.service.Document(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("autonomous-vehicles-rl.docx", doc.Name)
	s.Empty(doc.URL)
	body, _ := io.ReadAll(doc.Object.Body)
	s.Equal("docx", string(body))

	_, err = s.service.Document(s.ctx, "ABS-2")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Require().NoError(s.service.Remove(s.ctx, rec.ID))
	s.Zero(s.blobs.Len())
	s.True(dErrors.HasCode(s.service.Remove(s.ctx, rec.ID), dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestStats() {
	s.seed(
		submission.Abstract{ID: "1", Status: submission.StatusPending},
		submission.Abstract{ID: "2", Status: submission.StatusAccepted},
		submission.Abstract{ID: "3", Status: submission.StatusAccepted},
		submission.Abstract{ID: "4", Status: submission.StatusRejected},
	)

	st, err := s.service.Stats(s.ctx)

	s.Require().NoError(err)
	s.Equal(Stats{Total: 4, Pending: 1, Accepted: 2, Rejected: 1}, st)
}
