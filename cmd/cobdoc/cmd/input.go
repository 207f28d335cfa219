package cmd

import (
	"io"
	"os"
	"path/filepath"

	cderror "github.com/msto63/cobdoc/foundation/core/error"
)

// readSource reads the program named by args[0], or stdin when the
// argument is "-" or missing and stdin is piped. It returns a display name
// for the source alongside its text.
func readSource(args []string) (name, source string, err error) {
	if len(args) == 0 || args[0] == "-" {
		stat, _ := os.Stdin.Stat()
		if len(args) == 0 && stat != nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			return "", "", cderror.New("no source file given").
				WithCode(cderror.CodeInvalidInput)
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", cderror.Wrap(err, "failed to read stdin")
		}
		return "<stdin>", string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		code := cderror.CodeInternal
		if os.IsNotExist(err) {
			code = cderror.CodeNotFound
		}
		return "", "", cderror.Wrap(err, "failed to read source").WithCode(code)
	}
	return filepath.Base(args[0]), string(data), nil
}
