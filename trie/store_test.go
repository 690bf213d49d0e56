package trie

import (
	"testing"

	. "github.com/fulldump/biff"
)

func TestInsertAndFind(t *testing.T) {
	s := Empty()

	_, err := s.Insert([]byte("foo"), []byte("1"))
	AssertNil(err)

	v, ok := s.Find([]byte("foo"))
	AssertTrue(ok)
	AssertEqual(string(v), "1")
	AssertEqual(s.Size(), 1)
}

func TestInsertEmptyKeyFails(t *testing.T) {
	s := Empty()

	_, err := s.Insert(nil, []byte("1"))
	AssertEqual(err, ErrInvalidArgument)
}

func TestInsertDuplicateFails(t *testing.T) {
	s := Empty()
	s.Insert([]byte("foo"), []byte("1"))

	existing, err := s.Insert([]byte("foo"), []byte("2"))
	AssertEqual(err, ErrKeyExists)
	AssertEqual(string(existing), "1")
}

func TestUpdateMissingKeyFails(t *testing.T) {
	s := Empty()

	_, err := s.Update([]byte("foo"), []byte("1"))
	AssertEqual(err, ErrKeyNotFound)
}

func TestUpdateAdjustsDataSize(t *testing.T) {
	s := Empty()
	s.Insert([]byte("foo"), []byte("12345"))

	old, err := s.Update([]byte("foo"), []byte("1"))
	AssertNil(err)
	AssertEqual(string(old), "12345")
	AssertEqual(s.DataSize(), int64(1))
}

func TestEraseAbsentKeyIsANoOp(t *testing.T) {
	s := Empty()
	s.Insert([]byte("abc"), []byte("1"))

	n := s.Erase([]byte("jkl"))
	AssertEqual(n, 0)
	AssertEqual(s.Size(), 1)
}

// invariant 1: size and data_size track the sequence exactly.
func TestSizeAndDataSizeTrackOperations(t *testing.T) {
	s := Empty()
	s.Insert([]byte("a"), []byte("x"))
	s.Insert([]byte("b"), []byte("yy"))
	s.Insert([]byte("c"), []byte("zzz"))

	AssertEqual(s.Size(), 3)
	AssertEqual(s.DataSize(), int64(6))

	s.Erase([]byte("b"))
	AssertEqual(s.Size(), 2)
	AssertEqual(s.DataSize(), int64(4))
}

// invariant 2: inserting an absent key grows the trie and is readable back.
func TestInsertGrowsAndIsReadable(t *testing.T) {
	s := Empty()
	before := s.Size()

	s.Insert([]byte("new"), []byte("v"))

	v, ok := s.Find([]byte("new"))
	AssertTrue(ok)
	AssertEqual(string(v), "v")
	AssertEqual(s.Size(), before+1)
}

// invariant 3: erase is idempotent.
func TestEraseIsIdempotent(t *testing.T) {
	s := Empty()
	s.Insert([]byte("k"), []byte("v"))

	s.Erase([]byte("k"))
	first := s.Size()
	n := s.Erase([]byte("k"))
	AssertEqual(n, 0)
	AssertEqual(s.Size(), first)
}

// invariant 4 / S1: persistence across a clone, plus pointer-identity
// sharing of the untouched subtree.
func TestCloneIsIndependentAndShares(t *testing.T) {
	s := Empty()
	s.Insert([]byte("foo"), []byte("1"))
	s.Insert([]byte("fod"), []byte("2"))
	s.Insert([]byte("fee"), []byte("3"))

	feeNodeBefore := s.descend([]byte("fee"))

	clone := s.Clone()
	clone.Insert([]byte("fed"), []byte("5"))

	_, ok := s.Find([]byte("fed"))
	AssertFalse(ok)

	v, ok := clone.Find([]byte("fed"))
	AssertTrue(ok)
	AssertEqual(string(v), "5")

	feeNodeAfter := clone.descend([]byte("fee"))
	AssertTrue(feeNodeBefore == feeNodeAfter)
}

// S2
func TestScenarioS2(t *testing.T) {
	s := Empty()
	s.Insert([]byte("abc"), []byte("1"))
	s.Insert([]byte("def"), []byte("4"))
	s.Insert([]byte("ghi"), []byte("5"))

	s.Erase([]byte("abc"))
	AssertEqual(s.Size(), 2)

	var keys []string
	for it := s.Begin(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	AssertEqual(keys, []string{"def", "ghi"})

	AssertEqual(s.Erase([]byte("jkl")), 0)
}

// S3: erasing an internal node with a surviving child preserves the descendant.
func TestScenarioS3(t *testing.T) {
	s := Empty()
	s.Insert([]byte("bar"), []byte("2"))
	s.Insert([]byte("barrista"), []byte("3"))
	s.Insert([]byte("foz"), []byte("4"))

	s.Erase([]byte("bar"))

	v, ok := s.Find([]byte("barrista"))
	AssertTrue(ok)
	AssertEqual(string(v), "3")
	AssertEqual(s.Size(), 2)
}

// invariant 5 / S6: forward order is sorted, reverse is its exact mirror.
func TestForwardAndReverseOrder(t *testing.T) {
	s := Empty()
	for _, k := range []string{"foo", "bar", "baz", "fools", "foods"} {
		s.Insert([]byte(k), []byte(k))
	}

	var forward []string
	for it := s.Begin(); it.Valid(); it.Next() {
		forward = append(forward, string(it.Key()))
	}
	AssertEqual(forward, []string{"bar", "baz", "foo", "foods", "fools"})

	var reverse []string
	for it := s.ReverseBegin(); it.Valid(); it.Next() {
		reverse = append(reverse, string(it.Key()))
	}
	AssertEqual(reverse, []string{"fools", "foods", "foo", "baz", "bar"})
}

func TestLowerAndUpperBound(t *testing.T) {
	s := Empty()
	for _, k := range []string{"a", "c", "e"} {
		s.Insert([]byte(k), []byte(k))
	}

	it := s.LowerBound([]byte("b"))
	AssertTrue(it.Valid())
	AssertEqual(string(it.Key()), "c")

	it = s.LowerBound([]byte("c"))
	AssertTrue(it.Valid())
	AssertEqual(string(it.Key()), "c")

	it = s.UpperBound([]byte("c"))
	AssertTrue(it.Valid())
	AssertEqual(string(it.Key()), "e")

	it = s.UpperBound([]byte("e"))
	AssertFalse(it.Valid())
}

func TestReverseLowerAndUpperBound(t *testing.T) {
	s := Empty()
	for _, k := range []string{"a", "c", "e"} {
		s.Insert([]byte(k), []byte(k))
	}

	it := s.ReverseLowerBound([]byte("d"))
	AssertTrue(it.Valid())
	AssertEqual(string(it.Key()), "c")

	it = s.ReverseLowerBound([]byte("c"))
	AssertTrue(it.Valid())
	AssertEqual(string(it.Key()), "c")

	it = s.ReverseUpperBound([]byte("c"))
	AssertTrue(it.Valid())
	AssertEqual(string(it.Key()), "a")

	it = s.ReverseUpperBound([]byte("a"))
	AssertFalse(it.Valid())
}

func TestClear(t *testing.T) {
	s := Empty()
	s.Insert([]byte("a"), []byte("1"))
	s.Insert([]byte("b"), []byte("2"))

	s.Clear()
	AssertEqual(s.Size(), 0)
	AssertEqual(s.DataSize(), int64(0))
	_, ok := s.Find([]byte("a"))
	AssertFalse(ok)
}
