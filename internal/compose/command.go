package compose

import "strings"

const DefaultBinary = "docker-compose"
const DefaultFile = "docker-compose.yml"

// Compose builds docker-compose invocations for a single compose file.
type Compose struct {
	// Binary is either "docker-compose" or "docker compose".
	Binary string
	File   string

	// ProjectDir is the working directory of the invoked command.
	ProjectDir string

	// Env is appended to the current process environment.
	Env []string
}

func New(binary, file, projectDir string) *Compose {
	if binary == "" {
		binary = DefaultBinary
	}
	if file == "" {
		file = DefaultFile
	}

	return &Compose{
		Binary:     binary,
		File:       file,
		ProjectDir: projectDir,
	}
}

// base returns the executable and the leading arguments shared by all commands.
func (c *Compose) base() (string, []string) {
	parts := strings.Fields(c.Binary)
	if len(parts) == 0 {
		parts = []string{DefaultBinary}
	}

	args := append([]string{}, parts[1:]...)
	args = append(args, "-f", c.File)

	return parts[0], args
}

func (c *Compose) cmdUp() (string, []string) {
	name, args := c.base()
	return name, append(args, "up", "-d")
}

func (c *Compose) cmdDown() (string, []string) {
	name, args := c.base()
	return name, append(args, "down")
}

func (c *Compose) cmdLogs(follow bool) (string, []string) {
	name, args := c.base()
	args = append(args, "logs")
	if follow {
		args = append(args, "-f")
	}

	return name, args
}

// cmdExec generates an exec invocation. Without a TTY compose needs -T,
// otherwise it fails when stdin is not a terminal.
func (c *Compose) cmdExec(service string, interactive bool, command ...string) (string, []string) {
	name, args := c.base()
	args = append(args, "exec")
	if !interactive {
		args = append(args, "-T")
	}
	args = append(args, service)

	return name, append(args, command...)
}
