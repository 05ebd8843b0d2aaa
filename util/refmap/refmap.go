package refmap

import (
	"fmt"

	db "ukern/debug"
	"ukern/serr"
)

//
// Map of ref-counted references of type K to objects of type T. The
// kernel uses it for parent/child records: both the parent and the
// child hold a reference, and the record goes away when the last of
// the two lets go. The caller is responsible for concurrency control.
//

type entry[T any] struct {
	n int
	e T
}

func newEntry[T any](i T) *entry[T] {
	e := &entry[T]{
		n: 1,
		e: i,
	}
	return e
}

func (e *entry[T]) String() string {
	return fmt.Sprintf("{n %d %v}", e.n, e.e)
}

type RefTable[K comparable, T any] struct {
	debug db.Tselector
	refs  map[K]*entry[T]
}

func NewRefTable[K comparable, T any](debug db.Tselector) *RefTable[K, T] {
	rf := &RefTable[K, T]{
		debug: debug + db.REFMAP_SUFFIX,
		refs:  make(map[K]*entry[T]),
	}
	return rf
}

func (rf *RefTable[K, T]) Lookup(k K) (T, bool) {
	var r T
	if e, ok := rf.refs[k]; ok {
		db.DPrintf(rf.debug, "lookup %v %v", k, e)
		return e.e, true
	}
	db.DPrintf(rf.debug, "lookup %v no entry", k)
	return r, false
}

// Insert takes a reference on k, creating the object with newT if k
// has none yet. It reports whether the object already existed.
func (rf *RefTable[K, T]) Insert(k K, newT func() T) (T, bool) {
	if e, ok := rf.refs[k]; ok {
		e.n += 1
		db.DPrintf(rf.debug, "insert %v %v", k, e)
		return e.e, true
	}
	e := newEntry(newT())
	db.DPrintf(rf.debug, "new insert %v %v", k, e)
	rf.refs[k] = e
	return e.e, false
}

// Delete drops a reference on k and reports whether it was the last.
func (rf *RefTable[K, T]) Delete(k K) (bool, error) {
	del := false
	e, ok := rf.refs[k]
	if !ok {
		db.DPrintf(db.ERROR, "delete %v %v", rf.debug, k)
		return false, serr.NewErr(serr.TErrNotfound, k)
	}
	e.n -= 1
	if e.n <= 0 {
		db.DPrintf(rf.debug, "delete %v -> %v", k, e.e)
		del = true
		delete(rf.refs, k)
	}
	return del, nil
}

// Refcnt returns the number of references on k.
func (rf *RefTable[K, T]) Refcnt(k K) int {
	if e, ok := rf.refs[k]; ok {
		return e.n
	}
	return 0
}

func (rf *RefTable[K, T]) Len() int {
	return len(rf.refs)
}
