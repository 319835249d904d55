package utxo

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// Row is the columnar form of a UTXO record written by ExportParquet.
// Hashes and scripts are hex encoded.
type Row struct {
	TxID        string `parquet:"name=txid, type=BYTE_ARRAY, convertedtype=UTF8"`
	BlockHash   string `parquet:"name=block_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	Address     string `parquet:"name=address, type=BYTE_ARRAY, convertedtype=UTF8"`
	OutputIndex int64  `parquet:"name=output_index, type=INT64"`
	Value       int64  `parquet:"name=value, type=INT64"`
	Script      string `parquet:"name=script, type=BYTE_ARRAY, convertedtype=UTF8"`
	Spent       bool   `parquet:"name=spent, type=BOOLEAN"`
}

func toRow(u *UTXO) Row {
	return Row{
		TxID:        u.TxID.String(),
		BlockHash:   u.BlockHash.String(),
		Address:     u.AddressString(),
		OutputIndex: int64(u.OutputIndex),
		Value:       int64(u.Value),
		Script:      u.Script.String(),
		Spent:       u.Spent,
	}
}

// parquetParallelism is the number of goroutines parquet-go uses to
// marshal and unmarshal rows.
const parquetParallelism = 4

// ExportParquet writes the records of c to a parquet file at path and
// returns the number of rows written.
func ExportParquet(path string, c *Chain) (int, error) {
	if c == nil {
		return 0, ErrNilChain
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(Row), parquetParallelism)
	if err != nil {
		return 0, fmt.Errorf("parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	var n int
	for _, u := range c.All() {
		if err := pw.Write(toRow(u)); err != nil {
			return n, fmt.Errorf("parquet write row %d: %w", n, err)
		}
		n++
	}
	if err := pw.WriteStop(); err != nil {
		return n, fmt.Errorf("parquet finish: %w", err)
	}
	return n, nil
}

// ReadParquet reads back the rows of a file written by ExportParquet.
func ReadParquet(path string) ([]Row, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(Row), parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("parquet reader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]Row, pr.GetNumRows())
	if len(rows) == 0 {
		return rows, nil
	}
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("parquet read: %w", err)
	}
	return rows, nil
}
