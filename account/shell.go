package account

import (
	"bufio"
	"os"
	"strings"
)

// loginShell reads /etc/passwd for username's login shell. It is used only
// for log context (SPEC_FULL.md's Account.Shell expansion); failure to
// resolve it is not fatal, it simply leaves the field empty.
func loginShell(username string) string {
	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ":")
		if len(fields) == 7 && fields[0] == username {
			return fields[6]
		}
	}
	return ""
}
