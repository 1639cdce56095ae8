/*
Copyright © 2026 the binned authors.
This file is part of binned.

binned is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

binned is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with binned.  If not, see <http://www.gnu.org/licenses/>.
*/

package binned

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Monitor receives progress reports from long reads and can ask them to
// stop. Implementations must be safe to call from the goroutine doing the
// read.
type Monitor interface {
	// Begin is called once before work starts with the number of units
	// of work (output rows) to be done.
	Begin(task string, total int)
	// Worked reports that n more units have been completed.
	Worked(n int)
	// Done is called once when the read returns, successfully or not.
	Done()
	// Cancelled is polled once per output row; returning true abandons
	// the read with ErrCancelled.
	Cancelled() bool
}

// NullMonitor ignores all progress reports and never cancels.
type NullMonitor struct{}

func (NullMonitor) Begin(string, int) {}
func (NullMonitor) Worked(int)        {}
func (NullMonitor) Done()             {}
func (NullMonitor) Cancelled() bool   { return false }

// LogMonitor logs progress at most once per Interval.
type LogMonitor struct {
	Log      logrus.FieldLogger
	Interval time.Duration

	task        string
	total, done int
	last        time.Time
}

func (m *LogMonitor) Begin(task string, total int) {
	m.task, m.total, m.done = task, total, 0
	m.last = time.Now()
}

func (m *LogMonitor) Worked(n int) {
	m.done += n
	if m.total == 0 || time.Since(m.last) < m.Interval {
		return
	}
	m.last = time.Now()
	m.Log.WithFields(logrus.Fields{
		"task":     m.task,
		"progress": float64(m.done) / float64(m.total),
	}).Info("reading")
}

func (m *LogMonitor) Done() {
	m.Log.WithFields(logrus.Fields{"task": m.task, "rows": m.done}).Debug("finished")
}

func (m *LogMonitor) Cancelled() bool { return false }
