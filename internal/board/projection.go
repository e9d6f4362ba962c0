// Package board is the client-side state core for the idea board: a local
// projection of the remote idea store kept in sync through a full fetch plus
// incremental events, with optimistic like mutations layered on top.
package board

import (
	"sort"
	"sync"

	"ideaboard/internal/models"
)

// Projection maps each subject to its ideas. An idea lives in exactly one
// bucket at a time; the index enforces that, including across subject moves.
type Projection struct {
	mu      sync.RWMutex
	buckets map[string][]*models.Idea
	index   map[uint]string // idea id -> owning subject
}

// NewProjection returns an empty projection.
func NewProjection() *Projection {
	return &Projection{
		buckets: make(map[string][]*models.Idea),
		index:   make(map[uint]string),
	}
}

// Replace swaps the entire projection contents in one step. Used by the
// initial load so a failed fetch never leaves a half-built board.
func (p *Projection) Replace(subjects []string, ideas []*models.Idea) {
	buckets := make(map[string][]*models.Idea, len(subjects))
	index := make(map[uint]string, len(ideas))
	for _, s := range subjects {
		buckets[s] = nil
	}
	for _, idea := range ideas {
		if _, dup := index[idea.ID]; dup {
			continue
		}
		card := *idea
		buckets[card.Subject] = append(buckets[card.Subject], &card)
		index[card.ID] = card.Subject
	}

	p.mu.Lock()
	p.buckets = buckets
	p.index = index
	p.mu.Unlock()
}

// ReplaceSubjects rebuilds bucket membership against a new category set.
// Ideas whose subject is no longer listed keep their own bucket rather than
// being dropped.
func (p *Projection) ReplaceSubjects(subjects []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buckets := make(map[string][]*models.Idea, len(subjects))
	for _, s := range subjects {
		buckets[s] = nil
	}
	for subject, ideas := range p.buckets {
		buckets[subject] = append(buckets[subject], ideas...)
	}
	p.buckets = buckets
}

// Contains reports whether an idea id is present in any bucket.
func (p *Projection) Contains(id uint) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.index[id]
	return ok
}

// Get returns a copy of the stored idea, or false if unknown.
func (p *Projection) Get(id uint) (models.Idea, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	idea := p.locate(id)
	if idea == nil {
		return models.Idea{}, false
	}
	return idea.Clone(), true
}

// Insert adds an idea to the bucket for its subject. Inserting an id that is
// already present is a no-op, which makes duplicate event delivery harmless.
func (p *Projection) Insert(idea models.Idea) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.index[idea.ID]; exists {
		return false
	}
	p.buckets[idea.Subject] = append(p.buckets[idea.Subject], &idea)
	p.index[idea.ID] = idea.Subject
	return true
}

// Remove deletes an idea from the projection entirely.
func (p *Projection) Remove(id uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remove(id)
}

// Update applies fn to the stored idea. Returns false when the id is
// unknown. If fn changes the idea's subject, the idea moves buckets.
func (p *Projection) Update(id uint, fn func(*models.Idea)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idea := p.locate(id)
	if idea == nil {
		return false
	}

	oldSubject := idea.Subject
	fn(idea)
	if idea.Subject != oldSubject {
		p.move(idea, oldSubject)
	}
	return true
}

// Put replaces the stored copy of an idea wholesale, moving buckets if the
// authoritative copy carries a different subject.
func (p *Projection) Put(idea models.Idea) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored := p.locate(idea.ID)
	if stored == nil {
		return false
	}
	oldSubject := stored.Subject
	*stored = idea
	if stored.Subject != oldSubject {
		p.move(stored, oldSubject)
	}
	return true
}

// SortedView returns a fresh copy of every bucket with ideas ordered by like
// count descending, newest first among ties. Recomputed per call; board
// sizes are small enough that this beats maintaining sorted order.
func (p *Projection) SortedView() map[string][]models.Idea {
	p.mu.RLock()
	defer p.mu.RUnlock()

	view := make(map[string][]models.Idea, len(p.buckets))
	for subject, ideas := range p.buckets {
		sorted := make([]models.Idea, len(ideas))
		for i, idea := range ideas {
			sorted[i] = idea.Clone()
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].LikesCount != sorted[j].LikesCount {
				return sorted[i].LikesCount > sorted[j].LikesCount
			}
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
		view[subject] = sorted
	}
	return view
}

// Subjects returns the bucket names currently on the board.
func (p *Projection) Subjects() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	subjects := make([]string, 0, len(p.buckets))
	for s := range p.buckets {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects
}

// Len reports the total number of ideas on the board.
func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.index)
}

// locate finds the stored idea pointer via the index. Callers hold the lock.
func (p *Projection) locate(id uint) *models.Idea {
	subject, ok := p.index[id]
	if !ok {
		return nil
	}
	for _, idea := range p.buckets[subject] {
		if idea.ID == id {
			return idea
		}
	}
	return nil
}

// remove drops the idea from its bucket and the index. Callers hold the lock.
func (p *Projection) remove(id uint) bool {
	subject, ok := p.index[id]
	if !ok {
		return false
	}
	bucket := p.buckets[subject]
	for i, idea := range bucket {
		if idea.ID == id {
			p.buckets[subject] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	delete(p.index, id)
	return true
}

// move relocates an already-mutated idea from oldSubject's bucket to the
// bucket its current subject names. Callers hold the lock.
func (p *Projection) move(idea *models.Idea, oldSubject string) {
	bucket := p.buckets[oldSubject]
	for i, stored := range bucket {
		if stored.ID == idea.ID {
			p.buckets[oldSubject] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	p.buckets[idea.Subject] = append(p.buckets[idea.Subject], idea)
	p.index[idea.ID] = idea.Subject
}
