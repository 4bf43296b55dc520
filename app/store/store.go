// Package store keeps the whole tracker state (roles, jobs, table layout and min desired salary)
// and saves it as a single blob into a key-value slot after every change.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/google/uuid"

	"github.com/umputun/jobtrack/app/store/enums"
	"github.com/umputun/jobtrack/app/store/persistence"
)

// DefaultKey is the slot key the store blob is saved under
const DefaultKey = "job-tracker-store"

const slotTimeout = 5 * time.Second

// Slot is a key-value storage for the serialized store
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Data is the persisted aggregate, json field names are the stored format
type Data struct {
	Roles            []string `json:"roles" yaml:"roles"`
	Jobs             []Job    `json:"jobs" yaml:"jobs"`
	TableLayout      []Column `json:"tableLayout" yaml:"tableLayout"`
	MinDesiredSalary int      `json:"minDesiredSalary" yaml:"minDesiredSalary"`
}

// DefaultData returns the state of a brand-new tracker
func DefaultData() Data {
	return Data{Roles: []string{}, Jobs: []Job{}, TableLayout: DefaultLayout(), MinDesiredSalary: 0}
}

func (d Data) clone() Data {
	res := Data{
		Roles:            append([]string{}, d.Roles...),
		Jobs:             make([]Job, 0, len(d.Jobs)),
		TableLayout:      append([]Column{}, d.TableLayout...),
		MinDesiredSalary: d.MinDesiredSalary,
	}
	for _, j := range d.Jobs {
		res.Jobs = append(res.Jobs, j.clone())
	}
	return res
}

// Store is the single source of truth for the tracker state.
// All changes go through its methods, each change is persisted right away.
type Store struct {
	mu    sync.Mutex
	data  Data
	slot  Slot
	key   string
	rptr  Repeater
	now   func() time.Time
	newID func() string
}

// Params for New, only Slot is required
type Params struct {
	Slot     Slot
	Key      string           // slot key, DefaultKey if empty
	Repeater Repeater         // retries slot writes, 3 attempts with 50ms delay if nil
	Now      func() time.Time // time.Now if nil
	NewID    func() string    // uuid v4 if nil
}

// New makes a store loaded from the slot. Missing or broken blob results in the default state.
func New(params Params) *Store {
	s := &Store{
		slot:  params.Slot,
		key:   params.Key,
		rptr:  params.Repeater,
		now:   params.Now,
		newID: params.NewID,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.rptr == nil {
		s.rptr = repeater.New(&strategy.FixedDelay{Repeats: 3, Delay: 50 * time.Millisecond})
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	s.data = s.load()
	return s
}

// load reads the blob from the slot, falls back to default data on any failure
func (s *Store) load() Data {
	ctx, cancel := context.WithTimeout(context.Background(), slotTimeout)
	defer cancel()

	blob, err := s.slot.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			log.Printf("[INFO] no stored data under %q, starting with defaults", s.key)
			return DefaultData()
		}
		log.Printf("[WARN] failed to load store from %q, starting with defaults: %v", s.key, err)
		return DefaultData()
	}

	data := DefaultData()
	if err := json.Unmarshal(blob, &data); err != nil {
		log.Printf("[WARN] failed to parse stored data under %q, starting with defaults: %v", s.key, err)
		return DefaultData()
	}
	normalize(&data)
	log.Printf("[DEBUG] loaded store, %d roles, %d jobs", len(data.Roles), len(data.Jobs))
	return data
}

// persist writes the full state to the slot. Failure is logged and the in-memory state stays ahead.
// Must be called with mu locked.
func (s *Store) persist() {
	blob, err := json.Marshal(s.data)
	if err != nil {
		log.Printf("[WARN] failed to serialize store: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), slotTimeout)
	defer cancel()
	if err := s.rptr.Do(ctx, func() error { return s.slot.Put(ctx, s.key, blob) }); err != nil {
		log.Printf("[WARN] failed to persist store under %q: %v", s.key, err)
	}
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

// Job returns a copy of the job with given id
func (s *Store) Job(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.data.Jobs {
		if j.ID == id {
			return j.clone(), true
		}
	}
	return Job{}, false
}

// AddRole appends a role. Empty and already known names are ignored.
func (s *Store) AddRole(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" || slices.Contains(s.data.Roles, name) {
		return false
	}
	s.data.Roles = append(s.data.Roles, name)
	s.persist()
	return true
}

// UpdateRole renames a role in place and reassigns every job that had the old role.
// Jobs still carrying a deleted role are reassigned as well, the role list is unchanged then.
// Ignored if the new name is empty, equal to the old one or already used by another role.
func (s *Store) UpdateRole(oldName, newName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if newName == "" || newName == oldName || slices.Contains(s.data.Roles, newName) {
		return false
	}
	changed := false
	if idx := slices.Index(s.data.Roles, oldName); idx >= 0 {
		s.data.Roles[idx] = newName
		changed = true
	}
	for i := range s.data.Jobs {
		if s.data.Jobs[i].Role == oldName {
			s.data.Jobs[i].Role = newName
			changed = true
		}
	}
	if !changed {
		return false
	}
	s.persist()
	return true
}

// DeleteRole removes a role. Jobs referencing it keep the role value.
func (s *Store) DeleteRole(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.Index(s.data.Roles, name)
	if idx < 0 {
		return false
	}
	s.data.Roles = slices.Delete(s.data.Roles, idx, idx+1)
	s.persist()
	return true
}

// AddJob creates a job with a new id and creation time and puts it first
func (s *Store) AddJob(data JobData) Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := Job{
		ID:           s.newID(),
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
		CompanyName:  data.CompanyName,
		Link:         data.Link,
		Desirability: ClampDesirability(data.Desirability),
		SalaryMin:    copyInt(data.SalaryMin),
		SalaryMax:    copyInt(data.SalaryMax),
		Role:         data.Role,
		Keywords:     append([]string{}, data.Keywords...),
		Progress:     data.Progress,
	}
	if job.Progress == (enums.Progress{}) {
		job.Progress = enums.ProgressProspecting
	}
	s.data.Jobs = slices.Insert(s.data.Jobs, 0, job)
	s.persist()
	return job.clone()
}

// UpdateJob applies updates to the job with given id, ignored if there is no such job
func (s *Store) UpdateJob(id string, updates ...JobUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(updates) == 0 {
		return false
	}
	idx := slices.IndexFunc(s.data.Jobs, func(j Job) bool { return j.ID == id })
	if idx < 0 {
		return false
	}
	for _, upd := range updates {
		upd(&s.data.Jobs[idx])
	}
	s.persist()
	return true
}

// DeleteJob removes the job with given id
func (s *Store) DeleteJob(id string) bool {
	return s.DeleteJobs([]string{id}) > 0
}

// DeleteJobs removes all jobs with given ids, unknown ids are ignored. Returns the number removed.
func (s *Store) DeleteJobs(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(ids) == 0 {
		return 0
	}
	before := len(s.data.Jobs)
	s.data.Jobs = slices.DeleteFunc(s.data.Jobs, func(j Job) bool { return slices.Contains(ids, j.ID) })
	removed := before - len(s.data.Jobs)
	if removed > 0 {
		s.persist()
	}
	return removed
}

// UpdateTableLayout replaces the column order
func (s *Store) UpdateTableLayout(layout []Column) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.TableLayout = append([]Column{}, layout...)
	s.persist()
}

// UpdateMinDesiredSalary replaces the min desired salary
func (s *Store) UpdateMinDesiredSalary(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.MinDesiredSalary = v
	s.persist()
}

// normalize replaces nil collections so the blob never carries nulls for lists
func normalize(d *Data) {
	if d.Roles == nil {
		d.Roles = []string{}
	}
	if d.Jobs == nil {
		d.Jobs = []Job{}
	}
	if d.TableLayout == nil {
		d.TableLayout = DefaultLayout()
	}
	for i := range d.Jobs {
		if d.Jobs[i].Keywords == nil {
			d.Jobs[i].Keywords = []string{}
		}
	}
}
