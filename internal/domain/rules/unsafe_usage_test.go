package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsafeUsage_Blocks(t *testing.T) {
	src := `static mut HITS: u32 = 0;

fn read(ptr: *const u8) -> u8 {
    // SAFETY: caller guarantees ptr is valid.
    let a = unsafe { *ptr };
    let b = unsafe { *ptr };
    unsafe {
        // SAFETY: single-threaded test harness.
        HITS += 1;
    }
    let c = unsafe { 1 + 2 };
    a + b
}
`
	findings := evaluate(t, NewUnsafeUsage(DefaultConfig().UnsafeUsage), src)
	require.Len(t, findings, 3)

	assert.Equal(t, "unsafe block without a `// SAFETY:` comment", findings[0].Message)
	assert.Equal(t, 6, findings[0].Position.Line)
	assert.Equal(t, "unsafe", texts(src, findings)[0])

	assert.Equal(t, 11, findings[1].Position.Line)
	assert.Equal(t, "unsafe block without a `// SAFETY:` comment", findings[1].Message)
	assert.Equal(t, "unsafe block contains no operation that requires unsafe", findings[2].Message)
	assert.Equal(t, "unsafe { 1 + 2 }", texts(src, findings)[2])
}

func TestUnsafeUsage_Items(t *testing.T) {
	src := `/// Reads a byte.
///
/// # Safety
///
/// ptr must be valid.
pub unsafe fn documented(ptr: *const u8) -> u8 { 0 }

pub unsafe fn undocumented() {}

struct Handle;

// SAFETY: Handle owns no thread-bound state.
unsafe impl Send for Handle {}

unsafe impl Sync for Handle {}

pub unsafe trait Zeroable {}
`
	cfg := DefaultConfig().UnsafeUsage
	findings := evaluate(t, NewUnsafeUsage(cfg), src)

	assert.Equal(t, []string{
		"pub unsafe fn undocumented",
		"unsafe impl Sync for Handle",
		"pub unsafe trait Zeroable",
	}, texts(src, findings))
}

func TestUnsafeUsage_CheckUnnecessaryOff(t *testing.T) {
	src := "fn f() {\n    // SAFETY: nothing.\n    unsafe { let x = 1; }\n}\n"

	cfg := DefaultConfig().UnsafeUsage
	assert.Len(t, evaluate(t, NewUnsafeUsage(cfg), src), 1)

	cfg.CheckUnnecessary = false
	assert.Empty(t, evaluate(t, NewUnsafeUsage(cfg), src))
}
