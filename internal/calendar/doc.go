// Package calendar renders stored events as an iCalendar feed.
package calendar
