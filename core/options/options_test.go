package options

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleOptions_Flags() {
	opts := New()
	fmt.Println(opts.Flags())

	opts.Enable(Errexit, true)
	opts.Enable(Xtrace, true)
	fmt.Println(opts.Flags())

	// Output: Bh
	// exBh
}

func TestDefaults(t *testing.T) {
	opts := New()

	assert.Equal(t, "braceexpand:hashall:interactive-comments", opts.ShellOpts())
	for _, opt := range []Option{Errexit, Nounset, Pipefail, Noglob, Posix} {
		assert.False(t, opts.Enabled(opt), opt.String())
	}
	assert.False(t, opts.ShoptEnabled(Extglob))
}

func TestViEmacsExclusive(t *testing.T) {
	opts := New()

	require.NoError(t, opts.Set("vi", true))
	assert.True(t, opts.Enabled(Vi))
	assert.False(t, opts.Enabled(Emacs))

	require.NoError(t, opts.Set("emacs", true))
	assert.True(t, opts.Enabled(Emacs))
	assert.False(t, opts.Enabled(Vi))

	require.NoError(t, opts.Set("emacs", false))
	assert.False(t, opts.Enabled(Vi))
	assert.False(t, opts.Enabled(Emacs))
}

func TestUnknown(t *testing.T) {
	opts := New()

	err := opts.Set("nosuchoption", true)
	assert.EqualError(t, err, "nosuchoption: invalid option name")

	_, err = opts.Get("nosuchoption")
	assert.Error(t, err)

	err = opts.SetShopt("nosuchoption", true)
	assert.EqualError(t, err, "nosuchoption: invalid shell option name")
}

func TestPublisher(t *testing.T) {
	opts := New()

	var flags, shellopts, bashopts string
	calls := 0
	opts.SetPublisher(PublisherFunc(func(f, s, b string) {
		calls++
		flags, shellopts, bashopts = f, s, b
	}))
	assert.Equal(t, 1, calls, "publishes on install")

	require.NoError(t, opts.Set("nounset", true))
	assert.Equal(t, 2, calls)
	assert.Equal(t, "uBh", flags)
	assert.Equal(t, "braceexpand:hashall:interactive-comments:nounset", shellopts)

	require.NoError(t, opts.SetShopt(Extglob, true))
	assert.Equal(t, 3, calls)
	assert.Contains(t, bashopts, "extglob")
}

func TestLookupFlag(t *testing.T) {
	opt, ok := LookupFlag('e')
	assert.True(t, ok)
	assert.Equal(t, Errexit, opt)

	_, ok = LookupFlag('Z')
	assert.False(t, ok)
}

func TestInertOptions(t *testing.T) {
	opts := New()
	for _, name := range Names() {
		_, err := opts.Get(name)
		assert.NoError(t, err, name)
	}
	for _, name := range ShoptNames() {
		_, err := opts.Shopt(name)
		assert.NoError(t, err, name)
	}
}

func TestClone(t *testing.T) {
	opts := New()
	published := 0
	opts.SetPublisher(PublisherFunc(func(_, _, _ string) { published++ }))
	require.NoError(t, opts.SetShopt(Extglob, true))

	clone := opts.Clone()
	clone.Enable(Errexit, true)
	require.NoError(t, clone.SetShopt(Extglob, false))

	assert.False(t, opts.Enabled(Errexit))
	assert.True(t, opts.ShoptEnabled(Extglob))
	assert.True(t, clone.Enabled(Errexit))
	assert.Equal(t, 2, published)
}
