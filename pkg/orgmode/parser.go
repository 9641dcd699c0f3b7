// Package orgmode imports tasks from Org-mode files.
package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/harrisonrobin/evertask/pkg/model"
)

var (
	headingRegex = regexp.MustCompile(`^\*+\s+(TODO|DONE)\b\s*(?:\[#([A-Za-z])\])?\s*(.*?)(?:\s+(:[\w@]+(?::[\w@]+)*:))?\s*$`)
	plainHeading = regexp.MustCompile(`^\*+\s`)
	// DEADLINE wins over SCHEDULED when a heading has both.
	deadlineRegex  = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3}\.?)?(?:\s+(\d{1,2}:\d{2}))?[^>]*>`)
	scheduledRegex = regexp.MustCompile(`SCHEDULED:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3}\.?)?(?:\s+(\d{1,2}:\d{2}))?[^>]*>`)
)

// ParseFile parses the Org-mode file at path.
func ParseFile(path string) ([]model.Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads TODO and DONE headings from r. Priorities [#A] to [#E] map to
// 1 to 5, the first tag becomes the category and the heading's DEADLINE (or
// SCHEDULED) stamp becomes the due date. Body text is kept as the
// description. Headings without a date are skipped.
func Parse(r io.Reader) ([]model.Task, error) {
	scanner := bufio.NewScanner(r)
	var (
		tasks    []model.Task
		current  *model.Task
		body     []string
		dated    bool
		inDrawer bool
	)

	flush := func() {
		if current != nil && dated && current.Title != "" {
			current.Description = strings.TrimSpace(strings.Join(body, "\n"))
			tasks = append(tasks, *current)
		}
		current, body, dated, inDrawer = nil, nil, false, false
	}

	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if m := headingRegex.FindStringSubmatch(line); m != nil {
			flush()
			current = &model.Task{
				Title:     strings.TrimSpace(m[3]),
				Completed: m[1] == "DONE",
				Priority:  priority(m[2]),
				Category:  firstTag(m[4]),
			}
			continue
		}
		if plainHeading.MatchString(line) {
			flush()
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, ":END:"):
			inDrawer = false
		case inDrawer:
		case line == ":PROPERTIES:" || line == ":LOGBOOK:":
			inDrawer = true
		case strings.HasPrefix(line, "DEADLINE:") || strings.HasPrefix(line, "SCHEDULED:") || strings.HasPrefix(line, "CLOSED:"):
			if date, clock, ok := stamp(line); ok {
				current.DueDate, current.DueTime = date, clock
				dated = true
			}
		default:
			body = append(body, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func stamp(line string) (date, clock string, ok bool) {
	m := deadlineRegex.FindStringSubmatch(line)
	if m == nil {
		m = scheduledRegex.FindStringSubmatch(line)
	}
	if m == nil {
		return "", "", false
	}
	clock = m[2]
	if len(clock) == 4 {
		clock = "0" + clock
	}
	return m[1], clock, true
}

func priority(letter string) int {
	if letter == "" {
		return model.DefaultPriority
	}
	p := int(strings.ToUpper(letter)[0]-'A') + 1
	if p > model.MaxPriority {
		p = model.MaxPriority
	}
	return p
}

func firstTag(tags string) string {
	tags = strings.Trim(tags, ":")
	if tags == "" {
		return ""
	}
	return strings.SplitN(tags, ":", 2)[0]
}
