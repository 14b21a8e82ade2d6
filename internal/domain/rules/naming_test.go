package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaming_Evaluate(t *testing.T) {
	src := `struct user_account { UserName: String }

enum color { dark_red, Blue }

const maxSize: usize = 10;
static Counter: u32 = 0;

fn getUserName(UserId: u32) -> String {
    let FullName = String::new();
    let _unused = 1;
    FullName
}

fn get_user_name() {}

mod MyModule {}

trait Shape {}

impl Drop for user_account {
    fn drop(&mut self) {}
}

extern "C" {
    fn GetTickCount() -> u32;
}

#[allow(non_snake_case)]
fn AllowedName() {}
`
	findings := evaluate(t, NewNaming(DefaultConfig().Naming), src)

	assert.Equal(t, []string{
		"user_account", "UserName", "color", "dark_red", "maxSize", "Counter",
		"getUserName", "UserId", "FullName", "MyModule",
	}, texts(src, findings))

	require.NotEmpty(t, findings)
	assert.Equal(t, "struct `user_account` should be PascalCase, e.g. `UserAccount`", findings[0].Message)
	assert.Equal(t, "UserAccount", findings[0].Suggestion)
	assert.Equal(t, "function `getUserName` should be snake_case, e.g. `get_user_name`", findings[6].Message)
}

func TestNaming_FlagsFunctionOnce(t *testing.T) {
	src := "fn getUserName() {}\nfn get_user_name() {}\n"

	findings := evaluate(t, NewNaming(DefaultConfig().Naming), src)
	require.Len(t, findings, 1)
	assert.Equal(t, "getUserName", texts(src, findings)[0])
}

func TestConvertCase(t *testing.T) {
	tests := []struct {
		name  string
		style string
		want  string
	}{
		{"getUserName", StyleSnake, "get_user_name"},
		{"getHTTPResponse", StyleSnake, "get_http_response"},
		{"user_account", StylePascal, "UserAccount"},
		{"maxSize", StyleScreamingSnake, "MAX_SIZE"},
		{"_leading", StylePascal, "_Leading"},
		{"MyValue2", StyleCamel, "myValue2"},
		{"r#Type", StyleSnake, "r#type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertCase(tt.name, tt.style))
		})
	}
}
