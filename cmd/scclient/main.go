// scclient is a CLI tool for exercising a running Sellercloud proxy.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	scclient transfer -proxy URL -from SKU -to SKU -qty N -warehouse ID [-to-warehouse ID] [-reason TEXT]
//	scclient skus -proxy URL [-group NAME] [-keyword TEXT]
//	scclient product -proxy URL -sku SKU
//	scclient po -proxy URL -id <po-id>
//	scclient po-items -proxy URL -id <po-id>
//	scclient receive -proxy URL -id <po-id> -line ITEM:QTY [-line ITEM:QTY ...]
//	scclient soap -proxy URL -action authenticate|get-product -file envelope.xml
//
// Examples:
//
//	scclient product -proxy http://localhost:8080 -sku IPH13-128-BLK
//	scclient po-items -proxy http://localhost:8080 -id 1042 -q | jq '.lines'
//	scclient receive -proxy http://localhost:8080 -id 1042 -line 55:2 -line 56:1
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

var client = &http.Client{Timeout: 60 * time.Second}

// Global flags (apply to all commands)
var (
	proxyURL string
	quiet    bool
	noColor  bool
	verbose  bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "transfer":
		runTransfer(args)
	case "skus":
		runSKUs(args)
	case "product":
		runProduct(args)
	case "po":
		runPurchaseOrder(args, "")
	case "po-items":
		runPurchaseOrder(args, "/items")
	case "receive":
		runReceive(args)
	case "soap":
		runSOAP(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `scclient - Sellercloud proxy test tool

Usage:
  scclient <command> [options]

Commands:
  transfer  Move inventory between SKUs or warehouses
  skus      Search the catalog by product group or keyword
  product   Look up one product by SKU
  po        Get purchase order lines
  po-items  Get purchase order items
  receive   Receive lines against a purchase order
  soap      Relay a SOAP envelope (authenticate or get-product)

Examples:
  # Look up a product
  scclient product -proxy http://localhost:8080 -sku IPH13-128-BLK

  # List purchase order lines as raw JSON
  scclient po -proxy http://localhost:8080 -id 1042 -q

  # Receive two lines
  scclient receive -proxy http://localhost:8080 -id 1042 -line 55:2 -line 56:1

Run 'scclient <command> -h' for command-specific options.
`)
}

// newFlagSet registers the flags shared by every command.
func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&proxyURL, "proxy", "http://localhost:8080", "Sellercloud proxy base URL")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output the response body")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: scclient %s %s [options]\n\nOptions:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	proxyURL = strings.TrimRight(proxyURL, "/")
}

// =============================================================================
// COMMANDS
// =============================================================================

func runTransfer(args []string) {
	fs := newFlagSet("transfer", "-from SKU -to SKU -qty N -warehouse ID")
	var (
		from, to, reason, serials string
		qty, warehouse, toWH      int
	)
	fs.StringVar(&from, "from", "", "Source SKU (required)")
	fs.StringVar(&to, "to", "", "Destination SKU (required)")
	fs.IntVar(&qty, "qty", 0, "Quantity to move (required)")
	fs.IntVar(&warehouse, "warehouse", 0, "Source warehouse ID (required)")
	fs.IntVar(&toWH, "to-warehouse", 0, "Destination warehouse ID")
	fs.StringVar(&reason, "reason", "", "Transfer reason")
	fs.StringVar(&serials, "serials", "", "Comma-separated serial numbers")
	parseFlags(fs, args)

	if from == "" || to == "" || qty <= 0 || warehouse == 0 {
		fs.Usage()
		os.Exit(1)
	}

	body := map[string]interface{}{
		"sourceSku":       from,
		"destinationSku":  to,
		"quantity":        qty,
		"fromWarehouseId": warehouse,
	}
	if toWH != 0 {
		body["toWarehouseId"] = toWH
	}
	if reason != "" {
		body["transferReason"] = reason
	}
	if serials != "" {
		body["serialNumbers"] = strings.Split(serials, ",")
	}

	resp, err := doRequest("POST", "/transfer", body)
	if err != nil {
		fatal("Transfer failed: %v", err)
	}
	finish(resp, "Transferred %d of %s to %s", qty, from, to)
}

func runSKUs(args []string) {
	fs := newFlagSet("skus", "-group NAME | -keyword TEXT")
	var group, filterType, keyword string
	fs.StringVar(&group, "group", "", "Product group name")
	fs.StringVar(&filterType, "group-filter", "", "Product group filter type")
	fs.StringVar(&keyword, "keyword", "", "Search keyword")
	parseFlags(fs, args)

	if group == "" && keyword == "" {
		fs.Usage()
		os.Exit(1)
	}

	q := url.Values{}
	for k, v := range map[string]string{"productGroup": group, "productGroupFilterType": filterType, "keyword": keyword} {
		if v != "" {
			q.Set(k, v)
		}
	}

	resp, err := doRequest("GET", "/api/skus?"+q.Encode(), nil)
	if err != nil {
		fatal("SKU search failed: %v", err)
	}
	items, _ := resp.decoded["items"].([]interface{})
	finish(resp, "Found %d SKUs", len(items))
}

func runProduct(args []string) {
	fs := newFlagSet("product", "-sku SKU")
	var sku string
	fs.StringVar(&sku, "sku", "", "SKU to look up (required)")
	parseFlags(fs, args)

	if sku == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("GET", "/product-info?sku="+url.QueryEscape(sku), nil)
	if err != nil {
		fatal("Product lookup failed: %v", err)
	}
	if found, _ := resp.decoded["found"].(bool); !found {
		if quiet {
			os.Stdout.Write(resp.body)
			return
		}
		printWarning("Product %s not found", sku)
		return
	}
	title, _ := resp.decoded["title"].(string)
	finish(resp, "Product %s: %s", sku, title)
}

func runPurchaseOrder(args []string, suffix string) {
	name := "po" + strings.ReplaceAll(suffix, "/", "-")
	fs := newFlagSet(name, "-id <po-id>")
	var id string
	fs.StringVar(&id, "id", "", "Purchase order ID (required)")
	parseFlags(fs, args)

	if id == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("GET", "/api/po/"+url.PathEscape(id)+suffix, nil)
	if err != nil {
		fatal("Failed to get purchase order: %v", err)
	}
	lines, _ := resp.decoded["lines"].([]interface{})
	finish(resp, "Purchase order %s has %d lines", id, len(lines))
}

// lineFlags collects repeated -line ITEM:QTY values.
type lineFlags []map[string]interface{}

func (l *lineFlags) String() string { return fmt.Sprint(len(*l)) }

func (l *lineFlags) Set(v string) error {
	item, qty, ok := strings.Cut(v, ":")
	if !ok {
		return fmt.Errorf("want ITEM:QTY, got %q", v)
	}
	id, err := strconv.ParseInt(item, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", item)
	}
	n, err := strconv.Atoi(qty)
	if err != nil {
		return fmt.Errorf("invalid quantity %q", qty)
	}
	*l = append(*l, map[string]interface{}{"id": id, "quantity": n})
	return nil
}

func runReceive(args []string) {
	fs := newFlagSet("receive", "-id <po-id> -line ITEM:QTY")
	var (
		id    int
		lines lineFlags
	)
	fs.IntVar(&id, "id", 0, "Purchase order ID (required)")
	fs.Var(&lines, "line", "Line to receive as ITEM:QTY (repeatable, at least one)")
	parseFlags(fs, args)

	if id <= 0 || len(lines) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/po/receive", map[string]interface{}{
		"poId":  id,
		"lines": lines,
	})
	if err != nil {
		fatal("Receive failed: %v", err)
	}
	finish(resp, "Received %d lines against purchase order %d", len(lines), id)
}

func runSOAP(args []string) {
	fs := newFlagSet("soap", "-action authenticate|get-product -file envelope.xml")
	var action, file string
	fs.StringVar(&action, "action", "", "SOAP route: authenticate or get-product (required)")
	fs.StringVar(&file, "file", "", "Path to the SOAP envelope, - for stdin (required)")
	parseFlags(fs, args)

	if (action != "authenticate" && action != "get-product") || file == "" {
		fs.Usage()
		os.Exit(1)
	}

	var envelope []byte
	var err error
	if file == "-" {
		envelope, err = io.ReadAll(os.Stdin)
	} else {
		envelope, err = os.ReadFile(file)
	}
	if err != nil {
		fatal("Failed to read envelope: %v", err)
	}

	req, err := http.NewRequest("POST", proxyURL+"/"+action, bytes.NewReader(envelope))
	if err != nil {
		fatal("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	if !quiet {
		fmt.Printf("\n%s▶ REQUEST%s %sPOST /%s%s (%d bytes)\n", colorYellow, colorReset, colorBold, action, colorReset, len(envelope))
	}
	status, body, err := send(req)
	if err != nil {
		fatal("SOAP request failed: %v", err)
	}
	if quiet {
		os.Stdout.Write(body)
		return
	}
	fmt.Println(string(body))
	if status >= 400 {
		fatal("SOAP endpoint returned HTTP %d", status)
	}
	printSuccess("SOAP %s relayed", action)
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

// response is a JSON proxy response kept both raw (for -q) and decoded.
type response struct {
	body    []byte
	decoded map[string]interface{}
}

func doRequest(method, path string, body interface{}) (*response, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, proxyURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !quiet {
		printRequest(method, path, reqJSON)
	}

	status, respBody, err := send(req)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", status, string(respBody))
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &response{body: respBody, decoded: decoded}, nil
}

func send(req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}

	if !quiet && strings.Contains(resp.Header.Get("Content-Type"), "json") {
		printResponse(resp.StatusCode, body, duration)
	}
	return resp.StatusCode, body, nil
}

// finish prints the raw body in quiet mode, otherwise a success line.
func finish(resp *response, format string, args ...interface{}) {
	if quiet {
		os.Stdout.Write(resp.body)
		fmt.Println()
		return
	}
	printSuccess(format, args...)
}

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
