package collector

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// exportedCookie is one line of a Netscape cookie file.
type exportedCookie struct {
	Domain  string
	Path    string
	Secure  bool
	Expires int64
	Name    string
	Value   string
}

// writeCookieFile writes cookies in the Netscape format yt-dlp reads.
func writeCookieFile(path string, cookies []exportedCookie) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cookie file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	bw.WriteString("# Netscape HTTP Cookie File\n")
	for _, c := range cookies {
		p := c.Path
		if p == "" {
			p = "/"
		}
		exp := c.Expires
		if exp < 0 {
			exp = 0
		}
		fmt.Fprintf(bw, "%s\tTRUE\t%s\t%s\t%d\t%s\t%s\n",
			c.Domain, p, strings.ToUpper(fmt.Sprint(c.Secure)), exp, c.Name, c.Value)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing cookie file: %w", err)
	}
	return nil
}

func removeCookieFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cookie file: %w", err)
	}
	return nil
}
