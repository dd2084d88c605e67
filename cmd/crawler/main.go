// Package main provides the entry point for the accessibility crawler.
//
// Usage:
//
//	crawler site add <root-url>
//	crawler start <site-id> [--max-pages N] [--max-depth N] [--run]
//	crawler run <crawl-id>
//	crawler worker
//	crawler serve
//
// Configuration is read from the environment or a .env file.
package main

func main() {
	Execute()
}
