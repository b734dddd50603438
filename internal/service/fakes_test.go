package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/repository/contract"
	"notebook-ai-be/internal/repository/specification"
	"notebook-ai-be/internal/repository/unitofwork"
	"notebook-ai-be/pkg/llm"

	"github.com/google/uuid"
)

// fakeStore is shared in-memory state behind the fake repositories. Spec
// structs are interpreted with type switches instead of SQL.
type fakeStore struct {
	notebooks     []*entity.Notebook
	conversations []*entity.Conversation
	messages      []*entity.Message
	sources       []*entity.MessageSource
	attachments   []*entity.MessageAttachment
	states        []*entity.ConversationState
	files         []*entity.DocumentFile
	chunks        []*entity.DocumentChunk
	jobs          []*entity.GenerationJob

	scoredChunks []*contract.ScoredDocumentChunk
}

type fakeUowFactory struct {
	store *fakeStore
}

func newFakeUowFactory(store *fakeStore) unitofwork.RepositoryFactory {
	return &fakeUowFactory{store: store}
}

func (f *fakeUowFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(_ context.Context) error { return nil }
func (u *fakeUow) Commit() error                 { return nil }
func (u *fakeUow) Rollback() error               { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository { return &fakeUserRepo{} }
func (u *fakeUow) NotebookRepository() contract.NotebookRepository {
	return &fakeNotebookRepo{store: u.store}
}
func (u *fakeUow) DocumentFileRepository() contract.DocumentFileRepository {
	return &fakeDocumentFileRepo{store: u.store}
}
func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &fakeDocumentChunkRepo{store: u.store}
}
func (u *fakeUow) ConversationRepository() contract.ConversationRepository {
	return &fakeConversationRepo{store: u.store}
}
func (u *fakeUow) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{store: u.store}
}
func (u *fakeUow) MessageSourceRepository() contract.MessageSourceRepository {
	return &fakeMessageSourceRepo{store: u.store}
}
func (u *fakeUow) MessageAttachmentRepository() contract.MessageAttachmentRepository {
	return &fakeMessageAttachmentRepo{store: u.store}
}
func (u *fakeUow) ConversationStateRepository() contract.ConversationStateRepository {
	return &fakeConversationStateRepo{store: u.store}
}
func (u *fakeUow) GenerationJobRepository() contract.GenerationJobRepository {
	return &fakeGenerationJobRepo{store: u.store}
}

// querySpec is the subset of specification handling shared by the fakes.
type querySpec struct {
	byID             *uuid.UUID
	byIDs            []uuid.UUID
	byNotebookID     *uuid.UUID
	byConversationID *uuid.UUID
	byUserID         *uuid.UUID
	byRole           string
	orderField       string
	orderDesc        bool
	limit            int
	updatedBefore    *time.Time
}

func parseSpecs(specs []specification.Specification) querySpec {
	var q querySpec
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			id := v.ID
			q.byID = &id
		case specification.ByIDs:
			q.byIDs = v.IDs
		case specification.ByNotebookID:
			id := v.NotebookID
			q.byNotebookID = &id
		case specification.ByConversationID:
			id := v.ConversationID
			q.byConversationID = &id
		case specification.UserOwnedBy:
			id := v.UserID
			q.byUserID = &id
		case specification.ByRole:
			q.byRole = v.Role
		case specification.OrderBy:
			q.orderField = v.Field
			q.orderDesc = v.Desc
		case specification.Limit:
			q.limit = v.N
		case specification.UpdatedBefore:
			t := v.T
			q.updatedBefore = &t
		}
	}
	return q
}

func (q querySpec) matchesID(id uuid.UUID) bool {
	if q.byID != nil && *q.byID != id {
		return false
	}
	if q.byIDs != nil {
		found := false
		for _, candidate := range q.byIDs {
			if candidate == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type fakeUserRepo struct{}

func (r *fakeUserRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.User, error) {
	return nil, nil
}

type fakeNotebookRepo struct {
	store *fakeStore
}

func (r *fakeNotebookRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Notebook, error) {
	q := parseSpecs(specs)
	for _, n := range r.store.notebooks {
		if q.matchesID(n.Id) {
			return n, nil
		}
	}
	return nil, nil
}

func (r *fakeNotebookRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Notebook, error) {
	return r.store.notebooks, nil
}

func (r *fakeNotebookRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(r.store.notebooks)), nil
}

type fakeConversationRepo struct {
	store *fakeStore
}

func (r *fakeConversationRepo) Create(_ context.Context, c *entity.Conversation) error {
	r.store.conversations = append(r.store.conversations, c)
	return nil
}

func (r *fakeConversationRepo) Update(_ context.Context, c *entity.Conversation) error {
	for i, existing := range r.store.conversations {
		if existing.Id == c.Id {
			r.store.conversations[i] = c
			return nil
		}
	}
	return nil
}

func (r *fakeConversationRepo) Delete(_ context.Context, id uuid.UUID) error {
	kept := r.store.conversations[:0]
	for _, c := range r.store.conversations {
		if c.Id != id {
			kept = append(kept, c)
		}
	}
	r.store.conversations = kept
	return nil
}

func (r *fakeConversationRepo) query(specs []specification.Specification) []*entity.Conversation {
	q := parseSpecs(specs)
	var out []*entity.Conversation
	for _, c := range r.store.conversations {
		if !q.matchesID(c.Id) {
			continue
		}
		if q.byNotebookID != nil && c.NotebookId != *q.byNotebookID {
			continue
		}
		if q.byUserID != nil && c.UserId != *q.byUserID {
			continue
		}
		if q.updatedBefore != nil {
			at := c.CreatedAt
			if c.UpdatedAt != nil {
				at = *c.UpdatedAt
			}
			if !at.Before(*q.updatedBefore) {
				continue
			}
		}
		out = append(out, c)
	}
	if q.orderField == "updated_at" {
		sort.SliceStable(out, func(i, j int) bool {
			ti, tj := out[i].CreatedAt, out[j].CreatedAt
			if out[i].UpdatedAt != nil {
				ti = *out[i].UpdatedAt
			}
			if out[j].UpdatedAt != nil {
				tj = *out[j].UpdatedAt
			}
			if q.orderDesc {
				return ti.After(tj)
			}
			return ti.Before(tj)
		})
	}
	if q.limit > 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out
}

func (r *fakeConversationRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	matches := r.query(specs)
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *fakeConversationRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	return r.query(specs), nil
}

func (r *fakeConversationRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.query(specs))), nil
}

type fakeMessageRepo struct {
	store *fakeStore
}

func (r *fakeMessageRepo) Create(_ context.Context, m *entity.Message) error {
	r.store.messages = append(r.store.messages, m)
	return nil
}

func (r *fakeMessageRepo) DeleteByConversationId(_ context.Context, conversationId uuid.UUID) error {
	kept := r.store.messages[:0]
	for _, m := range r.store.messages {
		if m.ConversationId != conversationId {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}

func (r *fakeMessageRepo) query(specs []specification.Specification) []*entity.Message {
	q := parseSpecs(specs)
	var out []*entity.Message
	for _, m := range r.store.messages {
		if !q.matchesID(m.Id) {
			continue
		}
		if q.byConversationID != nil && m.ConversationId != *q.byConversationID {
			continue
		}
		if q.byRole != "" && m.Role != q.byRole {
			continue
		}
		out = append(out, m)
	}
	if q.orderField == "created_at" {
		sort.SliceStable(out, func(i, j int) bool {
			if q.orderDesc {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}
	if q.limit > 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out
}

func (r *fakeMessageRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Message, error) {
	matches := r.query(specs)
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *fakeMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	return r.query(specs), nil
}

func (r *fakeMessageRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.query(specs))), nil
}

func (r *fakeMessageRepo) StatsByConversationIds(_ context.Context, conversationIds []uuid.UUID) (map[uuid.UUID]*contract.ConversationMessageStats, error) {
	out := make(map[uuid.UUID]*contract.ConversationMessageStats)
	for _, id := range conversationIds {
		stats := &contract.ConversationMessageStats{ConversationId: id}
		var firstAt time.Time
		for _, m := range r.store.messages {
			if m.ConversationId != id {
				continue
			}
			stats.MessageCount++
			if m.Role == entity.MessageRoleUser && (firstAt.IsZero() || m.CreatedAt.Before(firstAt)) {
				firstAt = m.CreatedAt
				stats.FirstMessage = m.Content
			}
		}
		if stats.MessageCount > 0 {
			out[id] = stats
		}
	}
	return out, nil
}

type fakeMessageSourceRepo struct {
	store *fakeStore
}

func (r *fakeMessageSourceRepo) CreateBulk(_ context.Context, sources []*entity.MessageSource) error {
	r.store.sources = append(r.store.sources, sources...)
	return nil
}

func (r *fakeMessageSourceRepo) DeleteByMessageIds(_ context.Context, messageIds []uuid.UUID) error {
	drop := make(map[uuid.UUID]bool, len(messageIds))
	for _, id := range messageIds {
		drop[id] = true
	}
	kept := r.store.sources[:0]
	for _, s := range r.store.sources {
		if !drop[s.MessageId] {
			kept = append(kept, s)
		}
	}
	r.store.sources = kept
	return nil
}

func (r *fakeMessageSourceRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.MessageSource, error) {
	return r.store.sources, nil
}

func (r *fakeMessageSourceRepo) FindAllByMessageIds(_ context.Context, messageIds []uuid.UUID) ([]*entity.MessageSource, error) {
	want := make(map[uuid.UUID]bool, len(messageIds))
	for _, id := range messageIds {
		want[id] = true
	}
	var out []*entity.MessageSource
	for _, s := range r.store.sources {
		if want[s.MessageId] {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeMessageAttachmentRepo struct {
	store *fakeStore
}

func (r *fakeMessageAttachmentRepo) CreateBulk(_ context.Context, attachments []*entity.MessageAttachment) error {
	r.store.attachments = append(r.store.attachments, attachments...)
	return nil
}

func (r *fakeMessageAttachmentRepo) DeleteByMessageIds(_ context.Context, messageIds []uuid.UUID) error {
	drop := make(map[uuid.UUID]bool, len(messageIds))
	for _, id := range messageIds {
		drop[id] = true
	}
	kept := r.store.attachments[:0]
	for _, a := range r.store.attachments {
		if !drop[a.MessageId] {
			kept = append(kept, a)
		}
	}
	r.store.attachments = kept
	return nil
}

func (r *fakeMessageAttachmentRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.MessageAttachment, error) {
	return r.store.attachments, nil
}

func (r *fakeMessageAttachmentRepo) FindAllByMessageIds(_ context.Context, messageIds []uuid.UUID) ([]*entity.MessageAttachment, error) {
	want := make(map[uuid.UUID]bool, len(messageIds))
	for _, id := range messageIds {
		want[id] = true
	}
	var out []*entity.MessageAttachment
	for _, a := range r.store.attachments {
		if want[a.MessageId] {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeConversationStateRepo struct {
	store *fakeStore
}

func (r *fakeConversationStateRepo) Upsert(_ context.Context, state *entity.ConversationState) error {
	for i, existing := range r.store.states {
		if existing.UserId == state.UserId && existing.NotebookId == state.NotebookId {
			r.store.states[i] = state
			return nil
		}
	}
	r.store.states = append(r.store.states, state)
	return nil
}

func (r *fakeConversationStateRepo) FindByUserAndNotebook(_ context.Context, userId, notebookId uuid.UUID) (*entity.ConversationState, error) {
	for _, s := range r.store.states {
		if s.UserId == userId && s.NotebookId == notebookId {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationStateRepo) DeleteByUserAndNotebook(_ context.Context, userId, notebookId uuid.UUID) error {
	kept := r.store.states[:0]
	for _, s := range r.store.states {
		if s.UserId != userId || s.NotebookId != notebookId {
			kept = append(kept, s)
		}
	}
	r.store.states = kept
	return nil
}

func (r *fakeConversationStateRepo) DeleteByConversationId(_ context.Context, conversationId uuid.UUID) error {
	kept := r.store.states[:0]
	for _, s := range r.store.states {
		if s.ConversationId != conversationId {
			kept = append(kept, s)
		}
	}
	r.store.states = kept
	return nil
}

func (r *fakeConversationStateRepo) FindAllByConversationId(_ context.Context, conversationId uuid.UUID) ([]*entity.ConversationState, error) {
	var out []*entity.ConversationState
	for _, s := range r.store.states {
		if s.ConversationId == conversationId {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeDocumentFileRepo struct {
	store *fakeStore
}

func (r *fakeDocumentFileRepo) Create(_ context.Context, f *entity.DocumentFile) error {
	r.store.files = append(r.store.files, f)
	return nil
}

func (r *fakeDocumentFileRepo) Update(_ context.Context, f *entity.DocumentFile) error {
	for i, existing := range r.store.files {
		if existing.Id == f.Id {
			r.store.files[i] = f
			return nil
		}
	}
	return nil
}

func (r *fakeDocumentFileRepo) Delete(_ context.Context, id uuid.UUID) error {
	kept := r.store.files[:0]
	for _, f := range r.store.files {
		if f.Id != id {
			kept = append(kept, f)
		}
	}
	r.store.files = kept
	return nil
}

func (r *fakeDocumentFileRepo) query(specs []specification.Specification) []*entity.DocumentFile {
	q := parseSpecs(specs)
	var out []*entity.DocumentFile
	for _, f := range r.store.files {
		if !q.matchesID(f.Id) {
			continue
		}
		if q.byNotebookID != nil && f.NotebookId != *q.byNotebookID {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (r *fakeDocumentFileRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.DocumentFile, error) {
	matches := r.query(specs)
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *fakeDocumentFileRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.DocumentFile, error) {
	return r.query(specs), nil
}

func (r *fakeDocumentFileRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.query(specs))), nil
}

type fakeDocumentChunkRepo struct {
	store *fakeStore
}

func (r *fakeDocumentChunkRepo) Create(_ context.Context, c *entity.DocumentChunk) error {
	r.store.chunks = append(r.store.chunks, c)
	return nil
}

func (r *fakeDocumentChunkRepo) CreateBulk(_ context.Context, chunks []*entity.DocumentChunk) error {
	r.store.chunks = append(r.store.chunks, chunks...)
	return nil
}

func (r *fakeDocumentChunkRepo) DeleteByFileId(_ context.Context, fileId uuid.UUID) error {
	kept := r.store.chunks[:0]
	for _, c := range r.store.chunks {
		if c.FileId != fileId {
			kept = append(kept, c)
		}
	}
	r.store.chunks = kept
	return nil
}

func (r *fakeDocumentChunkRepo) query(specs []specification.Specification) []*entity.DocumentChunk {
	q := parseSpecs(specs)
	var out []*entity.DocumentChunk
	for _, c := range r.store.chunks {
		if !q.matchesID(c.Id) {
			continue
		}
		out = append(out, c)
	}
	// ByFileID is chunk specific, handled inline.
	for _, s := range specs {
		if v, ok := s.(specification.ByFileID); ok {
			filtered := out[:0]
			for _, c := range out {
				if c.FileId == v.FileID {
					filtered = append(filtered, c)
				}
			}
			out = filtered
		}
	}
	return out
}

func (r *fakeDocumentChunkRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error) {
	matches := r.query(specs)
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *fakeDocumentChunkRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return r.query(specs), nil
}

func (r *fakeDocumentChunkRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.query(specs))), nil
}

func (r *fakeDocumentChunkRepo) SearchSimilarWithScore(_ context.Context, _ []float32, _ []uuid.UUID, _ int, _ float64) ([]*contract.ScoredDocumentChunk, error) {
	return r.store.scoredChunks, nil
}

type fakeGenerationJobRepo struct {
	store *fakeStore
}

func (r *fakeGenerationJobRepo) Create(_ context.Context, job *entity.GenerationJob) error {
	r.store.jobs = append(r.store.jobs, job)
	return nil
}

func (r *fakeGenerationJobRepo) UpdateStatus(_ context.Context, job *entity.GenerationJob) error {
	for i, existing := range r.store.jobs {
		if existing.Id == job.Id {
			r.store.jobs[i] = job
			return nil
		}
	}
	return nil
}

func (r *fakeGenerationJobRepo) query(specs []specification.Specification) []*entity.GenerationJob {
	q := parseSpecs(specs)
	var out []*entity.GenerationJob
	for _, j := range r.store.jobs {
		if !q.matchesID(j.Id) {
			continue
		}
		if q.byNotebookID != nil && j.NotebookId != *q.byNotebookID {
			continue
		}
		if q.byUserID != nil && j.UserId != *q.byUserID {
			continue
		}
		out = append(out, j)
	}
	return out
}

func (r *fakeGenerationJobRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.GenerationJob, error) {
	matches := r.query(specs)
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *fakeGenerationJobRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.GenerationJob, error) {
	return r.query(specs), nil
}

func (r *fakeGenerationJobRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.query(specs))), nil
}

func (r *fakeGenerationJobRepo) Delete(_ context.Context, id uuid.UUID) error {
	kept := r.store.jobs[:0]
	for _, j := range r.store.jobs {
		if j.Id != id {
			kept = append(kept, j)
		}
	}
	r.store.jobs = kept
	return nil
}

// recordingPublisher captures every published message per topic.
type recordingPublisher struct {
	published map[string][][]byte
	err       error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{published: make(map[string][][]byte)}
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published[topic] = append(p.published[topic], payload)
	return nil
}

// stubGenerateLLM returns canned replies and records prompts.
type stubGenerateLLM struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerateLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return s.reply, s.err
}

func (s *stubGenerateLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

// stubOCR extracts deterministic text for tests.
type stubOCR struct {
	text string
	err  error
}

func (s *stubOCR) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	return s.text, s.err
}

// memoryObjectStore keeps uploaded objects in a map.
type memoryObjectStore struct {
	objects map[string][]byte
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: make(map[string][]byte)}
}

func (m *memoryObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not stored", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}

func (m *memoryObjectStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}
