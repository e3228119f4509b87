package vars

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleStore_ArrayElements() {
	s := New()
	s.SetArray("arr", []string{"a", "b", "c"})

	fmt.Println(s.ArrayElements("arr"))
	fmt.Println(s.Get("arr[-1]"))

	// Output: [{0 a} {1 b} {2 c}]
	// c
}

func ExampleStore_Flatten() {
	s := New()
	s.Set("x", "1")
	s.SetArray("arr", []string{"a", "b"})
	s.SetAssoc("m", []Element{{"k", "v"}})

	flat := s.Flatten()
	for _, k := range []string{"x", "arr_0", "arr_1", "m_k"} {
		fmt.Printf("%s=%s\n", k, flat[k])
	}

	// Output: x=1
	// arr_0=a
	// arr_1=b
	// m_k=v
}

type recorder struct {
	warnings []string
}

func (r *recorder) warnf(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func newTestStore(t *testing.T) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := New()
	s.Warnf = rec.warnf
	return s, rec
}

func TestUnsetVersusEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Set("empty", ""))

	assert.True(t, s.IsSet("empty"))
	assert.False(t, s.IsSet("missing"))
	assert.Equal(t, "", s.Get("missing"))

	require.NoError(t, s.Declare("declared"))
	assert.False(t, s.IsSet("declared"))
}

func TestSubscripts(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetIndex("sparse", "0", "a"))
	require.NoError(t, s.SetIndex("sparse", "5", "b"))
	require.NoError(t, s.Set("str", "hello"))
	require.NoError(t, s.Set("i", "5"))

	cases := map[string]struct {
		name     string
		expected string
		set      bool
	}{
		"first":            {"sparse[0]", "a", true},
		"gap":              {"sparse[3]", "", false},
		"negative":         {"sparse[-1]", "b", true},
		"negative-far":     {"sparse[-6]", "a", true},
		"negative-too-far": {"sparse[-7]", "", false},
		"variable-index":   {"sparse[i]", "b", true},
		"dollar-index":     {"sparse[$i]", "b", true},
		"all":              {"sparse[@]", "a b", true},
		"bare-array":       {"sparse", "a", true},
		"scalar-zero":      {"str[0]", "hello", true},
		"scalar-all":       {"str[*]", "hello", true},
		"scalar-one":       {"str[1]", "", false},
		"scalar-negative":  {"str[-1]", "hello", true},
		"missing-all":      {"missing[@]", "", false},
		"missing-numbered": {"missing[0]", "", false},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			val, ok := s.Lookup(tc.name)
			assert.Equal(t, tc.expected, val)
			assert.Equal(t, tc.set, ok)
		})
	}
}

func TestAssocKeys(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.DeclareAssoc("m"))
	require.NoError(t, s.SetIndex("m", `"a b"`, "quoted"))
	require.NoError(t, s.SetIndex("m", "k1", "plain"))
	require.NoError(t, s.Set("key", "k1"))

	assert.Equal(t, "quoted", s.Get("m[a b]"))
	assert.Equal(t, "plain", s.Get("m[$key]"))
	assert.Equal(t, "plain", s.Get("m[${key}]"))
	assert.Equal(t, "", s.Get("m['$key']"))
	assert.Equal(t, []Element{{"a b", "quoted"}, {"k1", "plain"}}, s.ArrayElements("m"))
}

func TestNameref(t *testing.T) {
	s, rec := newTestStore(t)
	require.NoError(t, s.Set("tgt", "one"))
	require.NoError(t, s.SetNameref("ref", "tgt"))

	assert.Equal(t, "one", s.Get("ref"))

	require.NoError(t, s.Set("tgt", "two"))
	assert.Equal(t, s.Get("tgt"), s.Get("ref"))

	require.NoError(t, s.Set("ref", "three"))
	assert.Equal(t, "three", s.Get("tgt"))

	require.NoError(t, s.Unset("ref"))
	assert.False(t, s.IsSet("tgt"))
	target, ok := s.NamerefTarget("ref")
	assert.True(t, ok)
	assert.Equal(t, "tgt", target)
	assert.Empty(t, rec.warnings)
}

func TestNamerefToElement(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.DeclareAssoc("A"))
	require.NoError(t, s.SetIndex("A", "k1", "v1"))
	require.NoError(t, s.Set("key", "k1"))
	require.NoError(t, s.SetNameref("r", "A[$key]"))

	assert.Equal(t, "v1", s.Get("r"))

	require.NoError(t, s.Set("r", "v2"))
	assert.Equal(t, "v2", s.Get("A[k1]"))
}

func TestNamerefSelfReference(t *testing.T) {
	s, rec := newTestStore(t)
	require.NoError(t, s.SetNameref("self", "self"))

	assert.Equal(t, "", s.Get("self"))
	assert.False(t, s.IsSet("self"))
	assert.Equal(t, []string{"self: nameref variable self references not allowed"}, rec.warnings)
}

func TestNamerefCycle(t *testing.T) {
	s, rec := newTestStore(t)
	require.NoError(t, s.SetNameref("a", "b"))
	require.NoError(t, s.SetNameref("b", "a"))

	assert.Equal(t, "", s.Get("a"))
	assert.Contains(t, rec.warnings, "a: circular name reference")

	var circ *ErrCircular
	assert.True(t, errors.As(s.Set("a", "x"), &circ))
}

func TestArrayAssignment(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetArray("arr", []string{"a", "b"}))

	require.NoError(t, s.Set("arr", "z"))
	assert.Equal(t, []string{"z", "b"}, s.Values("arr"))

	require.NoError(t, s.AppendArray("arr", []string{"c"}))
	assert.Equal(t, []string{"z", "b", "c"}, s.Values("arr"))

	require.NoError(t, s.Unset("arr[1]"))
	assert.Equal(t, []Element{{"0", "z"}, {"2", "c"}}, s.ArrayElements("arr"))

	require.NoError(t, s.Append("arr", "!"))
	assert.Equal(t, "z!", s.Get("arr[0]"))

	require.NoError(t, s.Set("str", "x"))
	require.NoError(t, s.SetIndex("str", "2", "y"))
	assert.Equal(t, []Element{{"0", "x"}, {"2", "y"}}, s.ArrayElements("str"))
}

func TestAttributes(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.SetAttr("n", Integer, true))
	require.NoError(t, s.Set("n", "7"))
	require.NoError(t, s.Append("n", "3"))
	assert.Equal(t, "10", s.Get("n"))

	require.NoError(t, s.SetAttr("lo", Lower, true))
	require.NoError(t, s.Set("lo", "MiXeD"))
	assert.Equal(t, "mixed", s.Get("lo"))

	require.NoError(t, s.SetAttr("lo", Upper, true))
	require.NoError(t, s.Set("lo", "MiXeD"))
	assert.Equal(t, "MIXED", s.Get("lo"))
}

func TestReadOnly(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Set("ro", "1"))
	require.NoError(t, s.SetReadOnly("ro"))

	var roErr *ErrReadOnly
	assert.True(t, errors.As(s.Set("ro", "2"), &roErr))
	assert.Equal(t, "ro: readonly variable", roErr.Error())
	assert.Error(t, s.Unset("ro"))
	assert.Error(t, s.SetAttr("ro", ReadOnly, false))
	assert.Equal(t, "1", s.Get("ro"))
}

func TestDeclarations(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Set("x", `say "hi" $HOME`))
	require.NoError(t, s.SetArray("arr", []string{"a", "b"}))
	require.NoError(t, s.SetAssoc("m", []Element{{"k", "v"}, {"a b", "c"}}))
	require.NoError(t, s.SetNameref("ref", "x"))
	require.NoError(t, s.Declare("unset"))
	require.NoError(t, s.Export("unset"))
	require.NoError(t, s.SetAttr("n", Integer, true))
	require.NoError(t, s.Set("n", "4"))

	expected := []string{
		`declare -a arr=([0]="a" [1]="b")`,
		`declare -A m=([k]="v" ["a b"]="c" )`,
		`declare -i n="4"`,
		`declare -n ref="x"`,
		`declare -x unset`,
		`declare -- x="say \"hi\" \$HOME"`,
	}
	assert.Equal(t, expected, s.Declarations())

	line, ok := s.Declaration("arr")
	assert.True(t, ok)
	assert.Equal(t, expected[0], line)
	_, ok = s.Declaration("nope")
	assert.False(t, ok)
}

func TestEnviron(t *testing.T) {
	s := NewFromEnviron([]string{"B=2", "A=1=1", "EMPTY", "not valid=x"})
	require.NoError(t, s.Set("LOCAL", "x"))
	require.NoError(t, s.SetArray("ARR", []string{"a"}))
	require.NoError(t, s.Export("ARR"))

	assert.Equal(t, []string{"A=1=1", "B=2", "EMPTY="}, s.Environ())
}

func TestPositional(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetPositional([]string{"a", "b c", "d"})

	assert.Equal(t, "3", s.Get("#"))
	assert.Equal(t, "b c", s.Get("2"))
	assert.False(t, s.IsSet("4"))
	assert.Equal(t, "a b c d", s.Get("*"))
	assert.Equal(t, []string{"a", "b c", "d"}, s.Values("@"))

	require.NoError(t, s.Set("IFS", ":"))
	assert.Equal(t, "a:b c:d", s.Get("*"))

	assert.True(t, s.Shift(2))
	assert.Equal(t, "1", s.Get("#"))
	assert.Equal(t, "d", s.Get("1"))
	assert.False(t, s.Shift(2))
	assert.Equal(t, "1", s.Get("#"))

	s.SetPositional(nil)
	assert.Equal(t, "0", s.Get("#"))
	assert.False(t, s.IsSet("@"))
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type fakeRand struct {
	next int
	seed int64
}

func (r *fakeRand) Intn(n int) int {
	return r.next % n
}

func (r *fakeRand) Seed(seed int64) {
	r.seed = seed
}

func TestSpecialVariables(t *testing.T) {
	s, _ := newTestStore(t)
	clock := &fakeClock{now: time.Unix(1000, 0)}
	rnd := &fakeRand{next: 42}
	s.SetClock(clock)
	s.SetRand(rnd)
	s.Status = 3
	s.Pid = 100
	s.BashPid = 101
	s.PPid = 99
	s.ScriptName = "script.sh"

	clock.now = clock.now.Add(5 * time.Second)
	assert.Equal(t, "5", s.Get("SECONDS"))

	require.NoError(t, s.Set("SECONDS", "10"))
	clock.now = clock.now.Add(2 * time.Second)
	assert.Equal(t, "12", s.Get("SECONDS"))

	assert.Equal(t, "42", s.Get("RANDOM"))
	require.NoError(t, s.Set("RANDOM", "7"))
	assert.Equal(t, int64(7), rnd.seed)

	assert.Equal(t, "3", s.Get("?"))
	assert.Equal(t, "100", s.Get("$"))
	assert.Equal(t, "101", s.Get("BASHPID"))
	assert.Equal(t, "99", s.Get("PPID"))
	assert.Equal(t, "script.sh", s.Get("0"))

	require.NoError(t, s.Set("?", "9"))
	assert.Equal(t, "3", s.Get("?"))
}

func TestPublishedOptions(t *testing.T) {
	s, _ := newTestStore(t)
	assert.False(t, s.IsSet("SHELLOPTS"))

	s.PublishOptions("eh", "errexit:hashall", "extglob")
	assert.Equal(t, "eh", s.Get("-"))
	assert.Equal(t, "errexit:hashall", s.Get("SHELLOPTS"))
	assert.Equal(t, "extglob", s.Get("BASHOPTS"))

	var roErr *ErrReadOnly
	assert.True(t, errors.As(s.Set("SHELLOPTS", "x"), &roErr))
}

type fakeStack struct{}

func (fakeStack) FuncNames() []string   { return []string{"inner", "outer"} }
func (fakeStack) CallLines() []string   { return []string{"7", "3"} }
func (fakeStack) CallSources() []string { return []string{"main", "main"} }

func TestCallStackVariables(t *testing.T) {
	s, _ := newTestStore(t)
	assert.False(t, s.IsSet("FUNCNAME"))

	s.SetCallStack(fakeStack{})
	assert.Equal(t, "inner", s.Get("FUNCNAME"))
	assert.Equal(t, "outer", s.Get("FUNCNAME[1]"))
	assert.Equal(t, "outer", s.Get("FUNCNAME[-1]"))
	assert.Equal(t, []string{"7", "3"}, s.Values("BASH_LINENO"))
	assert.Equal(t, "main main", s.Get("BASH_SOURCE[@]"))
}

func TestLocalScopeRestore(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Set("x", "outer"))
	require.NoError(t, s.SetArray("arr", []string{"a"}))
	before := s.Declarations()

	id := s.PushScope()
	require.NoError(t, s.DeclareLocal("x"))
	assert.False(t, s.IsSet("x"))
	require.NoError(t, s.Set("x", "inner"))
	require.NoError(t, s.Export("x"))
	require.NoError(t, s.DeclareLocal("fresh"))
	require.NoError(t, s.Set("fresh", "1"))
	require.NoError(t, s.DeclareLocal("arr"))
	require.NoError(t, s.SetArray("arr", []string{"b", "c"}))

	assert.Equal(t, []string{"arr", "fresh", "x"}, s.Locals())
	assert.Equal(t, []string{"x"}, s.LocalExports())
	assert.Equal(t, []string{"x=inner"}, s.Environ())

	s.PopScope(id)

	assert.Equal(t, before, s.Declarations())
	assert.Equal(t, "outer", s.Get("x"))
	assert.False(t, s.IsSet("fresh"))
	assert.Empty(t, s.Environ())
	assert.Equal(t, 0, s.ScopeDepth())
}

func TestNestedScopes(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Set("x", "0"))

	outer := s.PushScope()
	require.NoError(t, s.DeclareLocal("x"))
	require.NoError(t, s.Set("x", "1"))

	s.PushScope()
	require.NoError(t, s.DeclareLocal("x"))
	require.NoError(t, s.Set("x", "2"))
	assert.Equal(t, "2", s.Get("x"))

	// Popping the outer scope also closes the inner one.
	s.PopScope(outer)
	assert.Equal(t, "0", s.Get("x"))
	assert.Equal(t, 0, s.ScopeDepth())

	assert.ErrorIs(t, s.DeclareLocal("y"), ErrNoScope)
}

func TestClone(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetArray("arr", []string{"a"}))
	s.SetPositional([]string{"p"})

	c := s.Clone()
	require.NoError(t, c.SetIndex("arr", "0", "changed"))
	c.SetPositional(nil)

	assert.Equal(t, "a", s.Get("arr[0]"))
	assert.Equal(t, "1", s.Get("#"))
	assert.Equal(t, "changed", c.Get("arr[0]"))
}

func TestRawKeys(t *testing.T) {
	s := New()
	require.NoError(t, s.DeclareAssoc("m"))
	require.NoError(t, s.SetKey("m", `$x "q"`, "raw"))

	val, ok := s.LookupKey("m", `$x "q"`)
	assert.True(t, ok)
	assert.Equal(t, "raw", val)

	require.NoError(t, s.UnsetKey("m", `$x "q"`))
	assert.Empty(t, s.ArrayElements("m"))

	require.NoError(t, s.SetKey("arr", "2", "two"))
	val, ok = s.LookupKey("arr", "2")
	assert.True(t, ok)
	assert.Equal(t, "two", val)
	require.NoError(t, s.UnsetKey("arr", "2"))
	assert.False(t, s.IsSet("arr[2]"))
}

func TestParseCompound(t *testing.T) {
	cases := map[string]struct {
		input    string
		expected []CompoundElem
	}{
		"plain":   {"(a b  c)", []CompoundElem{{Value: "a"}, {Value: "b"}, {Value: "c"}}},
		"empty":   {"()", nil},
		"keyed":   {`([3]=x [k]="y z")`, []CompoundElem{{Key: "3", HasKey: true, Value: "x"}, {Key: "k", HasKey: true, Value: "y z"}}},
		"quotes":  {`('a b' "c\"d" e\ f)`, []CompoundElem{{Value: "a b"}, {Value: `c"d`}, {Value: "e f"}}},
		"no-tail": {`x [1]=`, []CompoundElem{{Value: "x"}, {Key: "1", HasKey: true}}},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out, err := ParseCompound(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}

	_, err := ParseCompound(`("open)`)
	assert.Error(t, err)
}

func TestAssignCompound(t *testing.T) {
	s := New()

	require.NoError(t, s.AssignCompound("arr", []CompoundElem{{Value: "a"}, {Key: "5", HasKey: true, Value: "f"}, {Value: "g"}}, false))
	assert.Equal(t, []Element{{"0", "a"}, {"5", "f"}, {"6", "g"}}, s.ArrayElements("arr"))

	require.NoError(t, s.AssignCompound("arr", []CompoundElem{{Value: "h"}}, true))
	assert.Equal(t, "h", s.Get("arr[7]"))

	require.NoError(t, s.AssignCompound("arr", []CompoundElem{{Value: "only"}}, false))
	assert.Equal(t, []string{"only"}, s.Values("arr"))

	require.NoError(t, s.DeclareAssoc("m"))
	require.NoError(t, s.AssignCompound("m", []CompoundElem{{Key: "a b", HasKey: true, Value: "1"}, {Value: "k"}, {Value: "v"}}, false))
	assert.Equal(t, []Element{{"a b", "1"}, {"k", "v"}}, s.ArrayElements("m"))

	require.NoError(t, s.Set("str", "first"))
	require.NoError(t, s.AssignCompound("str", []CompoundElem{{Value: "second"}}, true))
	assert.Equal(t, []string{"first", "second"}, s.Values("str"))
}
