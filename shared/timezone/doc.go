// Package timezone pins every instant to the application timezone
// (APP_TIMEZONE, an IANA name such as "Asia/Jakarta"). Calendar dates such as
// booking start dates are not instants: ParseDate and FormatDate keep them as
// stored, and TodayDate names the current day in the application timezone.
// An unknown zone falls back to UTC.
package timezone
