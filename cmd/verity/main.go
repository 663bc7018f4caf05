// Command verity extracts GBD draw tables from a local warehouse,
// validates them, and writes the surviving datasets to a parquet
// artifact directory.
package main

func main() {
	Execute()
}
