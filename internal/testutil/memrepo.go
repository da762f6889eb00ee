// Package testutil provides in-memory repository fakes for unit tests.
//
// The fakes honor the same atomicity and error-mapping contracts as the
// postgres implementations so service-layer tests exercise real
// semantics without a database.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"relaybot.io/relaybot/internal/admin"
	"relaybot.io/relaybot/internal/approval"
	"relaybot.io/relaybot/internal/domain"
	apperrors "relaybot.io/relaybot/internal/pkg/errors"
	"relaybot.io/relaybot/internal/quota"
	"relaybot.io/relaybot/internal/simsim"
	"relaybot.io/relaybot/internal/stats"
)

// MemApprovalRepo is an in-memory approval.Repository.
type MemApprovalRepo struct {
	mu    sync.Mutex
	codes map[string]approval.Code // keyed by code value + "\x00" + purpose
}

// NewMemApprovalRepo creates an empty fake.
func NewMemApprovalRepo() *MemApprovalRepo {
	return &MemApprovalRepo{codes: make(map[string]approval.Code)}
}

func approvalKey(value, purpose string) string {
	return value + "\x00" + purpose
}

func (r *MemApprovalRepo) Insert(_ context.Context, code approval.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := approvalKey(code.Code, code.Purpose)
	if _, ok := r.codes[key]; ok {
		return apperrors.ErrAlreadyExists
	}
	r.codes[key] = code
	return nil
}

func (r *MemApprovalRepo) ConsumeValid(_ context.Context, value, purpose string, now time.Time) (*approval.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := approvalKey(value, purpose)
	code, ok := r.codes[key]
	if !ok || !code.ExpiresAt.After(now) {
		return nil, nil
	}
	delete(r.codes, key)
	return &code, nil
}

func (r *MemApprovalRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, code := range r.codes {
		if !code.ExpiresAt.After(now) {
			delete(r.codes, key)
			deleted++
		}
	}
	return deleted, nil
}

// Len reports how many codes are currently stored.
func (r *MemApprovalRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

// MemAdminRepo is an in-memory admin.Repository.
type MemAdminRepo struct {
	mu     sync.Mutex
	admins map[string]admin.Admin
}

// NewMemAdminRepo creates an empty fake.
func NewMemAdminRepo() *MemAdminRepo {
	return &MemAdminRepo{admins: make(map[string]admin.Admin)}
}

func (r *MemAdminRepo) Insert(_ context.Context, a admin.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[a.Hash]; ok {
		return apperrors.ErrAlreadyExists
	}
	r.admins[a.Hash] = a
	return nil
}

func (r *MemAdminRepo) Exists(_ context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.admins[hash]
	return ok, nil
}

func (r *MemAdminRepo) Delete(_ context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[hash]; !ok {
		return false, nil
	}
	delete(r.admins, hash)
	return true, nil
}

func (r *MemAdminRepo) List(_ context.Context) ([]admin.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]admin.Admin, 0, len(r.admins))
	for _, a := range r.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomName != out[j].RoomName {
			return out[i].RoomName < out[j].RoomName
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// MemQuotaRepo is an in-memory quota.Repository.
type MemQuotaRepo struct {
	mu     sync.Mutex
	quotas map[string]quota.RoomQuota
	usage  map[string]int // roomID + "\x00" + senderHash + "\x00" + day
}

// NewMemQuotaRepo creates an empty fake.
func NewMemQuotaRepo() *MemQuotaRepo {
	return &MemQuotaRepo{
		quotas: make(map[string]quota.RoomQuota),
		usage:  make(map[string]int),
	}
}

func usageKey(roomID, senderHash, day string) string {
	return roomID + "\x00" + senderHash + "\x00" + day
}

func (r *MemQuotaRepo) UpsertQuota(_ context.Context, q quota.RoomQuota) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotas[q.RoomID] = q
	return nil
}

func (r *MemQuotaRepo) GetQuota(_ context.Context, roomID string) (*quota.RoomQuota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotas[roomID]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (r *MemQuotaRepo) DeleteQuota(_ context.Context, roomID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quotas[roomID]; !ok {
		return false, nil
	}
	delete(r.quotas, roomID)
	return true, nil
}

func (r *MemQuotaRepo) IncrementUsage(_ context.Context, roomID, senderHash, day string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage[usageKey(roomID, senderHash, day)]++
	return nil
}

func (r *MemQuotaRepo) GetUsage(_ context.Context, roomID, senderHash, day string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage[usageKey(roomID, senderHash, day)], nil
}

// MemStatsRepo is an in-memory stats.Repository.
type MemStatsRepo struct {
	mu        sync.Mutex
	senders   map[string]*stats.SenderCount // roomID + "\x00" + senderHash + "\x00" + day
	contents  map[string]int                // roomID + "\x00" + content
	roomNames map[string]string
	settings  map[string]stats.RoomSetting
}

// NewMemStatsRepo creates an empty fake.
func NewMemStatsRepo() *MemStatsRepo {
	return &MemStatsRepo{
		senders:   make(map[string]*stats.SenderCount),
		contents:  make(map[string]int),
		roomNames: make(map[string]string),
		settings:  make(map[string]stats.RoomSetting),
	}
}

func (r *MemStatsRepo) RecordMessage(_ context.Context, msg *domain.Message, day string, contentEnabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	skey := msg.RoomID + "\x00" + msg.SenderHash + "\x00" + day
	if sc, ok := r.senders[skey]; ok {
		sc.Count++
		sc.SenderName = msg.SenderName
	} else {
		r.senders[skey] = &stats.SenderCount{
			SenderHash: msg.SenderHash,
			SenderName: msg.SenderName,
			Count:      1,
		}
	}
	if contentEnabled {
		r.contents[msg.RoomID+"\x00"+msg.Content]++
	}
	r.roomNames[msg.RoomID] = msg.RoomName
	return nil
}

// roomSenders sums the day partitions per sender, ordered by count.
func (r *MemStatsRepo) roomSenders(roomID string) []stats.SenderCount {
	byHash := make(map[string]*stats.SenderCount)
	for key, sc := range r.senders {
		if !strings.HasPrefix(key, roomID+"\x00") {
			continue
		}
		agg, ok := byHash[sc.SenderHash]
		if !ok {
			agg = &stats.SenderCount{SenderHash: sc.SenderHash, SenderName: sc.SenderName}
			byHash[sc.SenderHash] = agg
		}
		agg.Count += sc.Count
	}
	out := make([]stats.SenderCount, 0, len(byHash))
	for _, sc := range byHash {
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].SenderHash < out[j].SenderHash
	})
	return out
}

// dayOf extracts the day segment of a sender key.
func dayOf(key string) string {
	return key[strings.LastIndex(key, "\x00")+1:]
}

func (r *MemStatsRepo) WeekdayActivity(_ context.Context, roomID, senderHash string) ([7]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var counts [7]int
	for key, sc := range r.senders {
		if !strings.HasPrefix(key, roomID+"\x00") {
			continue
		}
		if senderHash != "" && sc.SenderHash != senderHash {
			continue
		}
		t, err := time.Parse(time.DateOnly, dayOf(key))
		if err != nil {
			continue
		}
		counts[int(t.Weekday())] += sc.Count
	}
	return counts, nil
}

func (r *MemStatsRepo) MonthActivity(_ context.Context, roomID, senderHash string) ([12]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var counts [12]int
	for key, sc := range r.senders {
		if !strings.HasPrefix(key, roomID+"\x00") {
			continue
		}
		if senderHash != "" && sc.SenderHash != senderHash {
			continue
		}
		t, err := time.Parse(time.DateOnly, dayOf(key))
		if err != nil {
			continue
		}
		counts[int(t.Month())-1] += sc.Count
	}
	return counts, nil
}

func (r *MemStatsRepo) ContentEnabled(_ context.Context, roomID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	setting, ok := r.settings[roomID]
	if !ok {
		return true, nil
	}
	return setting.ContentEnabled, nil
}

func (r *MemStatsRepo) SetContentEnabled(_ context.Context, setting stats.RoomSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[setting.RoomID] = setting
	return nil
}

func (r *MemStatsRepo) TopSenders(_ context.Context, roomID string, limit int) ([]stats.SenderCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.roomSenders(roomID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemStatsRepo) SenderRank(_ context.Context, roomID, senderHash string) (stats.Rank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.roomSenders(roomID)
	for i, sc := range all {
		if sc.SenderHash == senderHash {
			return stats.Rank{Position: i + 1, Of: len(all), Count: sc.Count}, nil
		}
	}
	return stats.Rank{Of: len(all)}, nil
}

func (r *MemStatsRepo) TopContents(_ context.Context, roomID string, limit int) ([]stats.ContentCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stats.ContentCount
	for key, count := range r.contents {
		if strings.HasPrefix(key, roomID+"\x00") {
			out = append(out, stats.ContentCount{
				Content: strings.TrimPrefix(key, roomID+"\x00"),
				Count:   count,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Content < out[j].Content
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemStatsRepo) RoomTotals(_ context.Context) ([]stats.RoomTotal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := make(map[string]*stats.RoomTotal)
	seen := make(map[string]bool) // roomID + "\x00" + senderHash
	for key, sc := range r.senders {
		roomID := key[:strings.Index(key, "\x00")]
		rt, ok := totals[roomID]
		if !ok {
			rt = &stats.RoomTotal{RoomID: roomID, RoomName: r.roomNames[roomID]}
			totals[roomID] = rt
		}
		rt.MessageCount += sc.Count
		if !seen[roomID+"\x00"+sc.SenderHash] {
			seen[roomID+"\x00"+sc.SenderHash] = true
			rt.SenderCount++
		}
	}
	out := make([]stats.RoomTotal, 0, len(totals))
	for _, rt := range totals {
		out = append(out, *rt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MessageCount != out[j].MessageCount {
			return out[i].MessageCount > out[j].MessageCount
		}
		return out[i].RoomID < out[j].RoomID
	})
	return out, nil
}

func (r *MemStatsRepo) DeleteBlacklisted(_ context.Context, prefixes, patterns []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key := range r.contents {
		content := key[strings.Index(key, "\x00")+1:]
		if blacklistedContent(content, prefixes, patterns) {
			delete(r.contents, key)
			deleted++
		}
	}
	return deleted, nil
}

func blacklistedContent(content string, prefixes, patterns []string) bool {
	trimmed := strings.TrimSpace(content)
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	for _, p := range patterns {
		if strings.Contains(trimmed, p) {
			return true
		}
	}
	return false
}

// MemSimSimRepo is an in-memory simsim.Repository.
type MemSimSimRepo struct {
	mu      sync.Mutex
	entries map[string]simsim.Entry // prompt + "\x00" + response
}

// NewMemSimSimRepo creates an empty fake.
func NewMemSimSimRepo() *MemSimSimRepo {
	return &MemSimSimRepo{entries: make(map[string]simsim.Entry)}
}

func simsimKey(prompt, response string) string {
	return prompt + "\x00" + response
}

func (r *MemSimSimRepo) Insert(_ context.Context, e simsim.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := simsimKey(e.Prompt, e.Response)
	if _, ok := r.entries[key]; ok {
		return apperrors.ErrAlreadyExists
	}
	r.entries[key] = e
	return nil
}

func (r *MemSimSimRepo) DeleteResponse(_ context.Context, prompt, response string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := simsimKey(prompt, response)
	if _, ok := r.entries[key]; !ok {
		return false, nil
	}
	delete(r.entries, key)
	return true, nil
}

func (r *MemSimSimRepo) DeleteAll(_ context.Context, prompt string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, e := range r.entries {
		if e.Prompt == prompt {
			delete(r.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemSimSimRepo) Responses(_ context.Context, prompt string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Prompt == prompt {
			out = append(out, e.Response)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemSimSimRepo) Count(_ context.Context, prompt string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Prompt == prompt {
			n++
		}
	}
	return n, nil
}

func (r *MemSimSimRepo) TopPrompts(_ context.Context, limit int) ([]simsim.PromptCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range r.entries {
		counts[e.Prompt]++
	}
	out := make([]simsim.PromptCount, 0, len(counts))
	for prompt, count := range counts {
		out = append(out, simsim.PromptCount{Prompt: prompt, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Prompt < out[j].Prompt
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
