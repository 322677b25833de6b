package channelmap

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type crateMapRow struct {
	Crate   uint32 `db:"Crate"`
	APAName string `db:"APAName"`
}

type fdhdChannelRow struct {
	OfflChan     uint32 `db:"OfflChan"`
	Upright      uint32 `db:"Upright"`
	WIB          uint32 `db:"WIB"`
	Link         uint32 `db:"Link"`
	FEMBOnLink   uint32 `db:"FEMBOnLink"`
	CEBChan      uint32 `db:"CEBChan"`
	Plane        uint32 `db:"Plane"`
	ChanInPlane  uint32 `db:"ChanInPlane"`
	FEMB         uint32 `db:"FEMB"`
	ASIC         uint32 `db:"ASIC"`
	ASICChan     uint32 `db:"ASICChan"`
	WIBFrameChan uint32 `db:"WIBFrameChan"`
}

type electronicsChannelRow struct {
	OfflChan    uint32 `db:"OfflChan"`
	DetID       uint32 `db:"DetID"`
	DetElement  uint32 `db:"DetElement"`
	Crate       uint32 `db:"Crate"`
	Slot        uint32 `db:"Slot"`
	Stream      uint32 `db:"Stream"`
	StreamChan  uint32 `db:"StreamChan"`
	Plane       uint32 `db:"Plane"`
	ChanInPlane uint32 `db:"ChanInPlane"`
	FEMB        uint32 `db:"FEMB"`
	ASIC        uint32 `db:"ASIC"`
	ASICChan    uint32 `db:"ASICChan"`
}

const (
	crateMapQuery = "SELECT Crate, APAName FROM FDHDCrateMap WHERE MinRun <= ? and MaxRun >= ? ORDER BY Position"

	fdhdChannelMapQuery = "SELECT OfflChan, Upright, WIB, Link, FEMBOnLink, CEBChan, Plane, ChanInPlane, FEMB, ASIC, ASICChan, WIBFrameChan " +
		"FROM FDHDChannelMap WHERE MinRun <= ? and MaxRun >= ? ORDER BY Upright, OfflChan"

	electronicsChannelMapQuery = "SELECT OfflChan, DetID, DetElement, Crate, Slot, Stream, StreamChan, Plane, ChanInPlane, FEMB, ASIC, ASICChan " +
		"FROM TPCChannelMap WHERE MinRun <= ? and MaxRun >= ? ORDER BY OfflChan"
)

// queryRunRows runs a query valid for a run and scans every row into a T.
func queryRunRows[T any](db sqlx.Queryer, query string, runNumber int, what string) ([]T, error) {
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading %s for run %d from database", what, runNumber)
		logger.Info(message, "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}
	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		var result T
		err := rows.StructScan(&result)
		if err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return results, nil
}

func getCratesFromDB(db sqlx.Queryer, runNumber int) ([]CrateEntry, error) {
	rows, err := queryRunRows[crateMapRow](db, crateMapQuery, runNumber, "crate map")
	if err != nil {
		return nil, err
	}
	entries := make([]CrateEntry, len(rows))
	for i, row := range rows {
		entries[i] = CrateEntry{Crate: row.Crate, APAName: row.APAName, Line: i + 1}
	}
	return entries, nil
}

func getFDHDTableFromDB(db sqlx.Queryer, runNumber int) ([]ChannelInfo, error) {
	rows, err := queryRunRows[fdhdChannelRow](db, fdhdChannelMapQuery, runNumber, "channel map")
	if err != nil {
		return nil, err
	}
	table := make([]ChannelInfo, len(rows))
	for i, row := range rows {
		table[i] = ChannelInfo{
			OfflChan:     row.OfflChan,
			Upright:      row.Upright,
			WIB:          row.WIB,
			Link:         row.Link,
			FEMBOnLink:   row.FEMBOnLink,
			CEBChan:      row.CEBChan,
			Plane:        row.Plane,
			ChanInPlane:  row.ChanInPlane,
			FEMB:         row.FEMB,
			ASIC:         row.ASIC,
			ASICChan:     row.ASICChan,
			WIBFrameChan: row.WIBFrameChan,
			Valid:        true,
		}
	}
	return table, nil
}

func getElectronicsTableFromDB(db sqlx.Queryer, runNumber int) ([]TPCChanInfo, error) {
	rows, err := queryRunRows[electronicsChannelRow](db, electronicsChannelMapQuery, runNumber, "electronics channel map")
	if err != nil {
		return nil, err
	}
	table := make([]TPCChanInfo, len(rows))
	for i, row := range rows {
		table[i] = TPCChanInfo{
			OfflChan:    row.OfflChan,
			DetID:       row.DetID,
			DetElement:  row.DetElement,
			Crate:       row.Crate,
			Slot:        row.Slot,
			Stream:      row.Stream,
			StreamChan:  row.StreamChan,
			Plane:       row.Plane,
			ChanInPlane: row.ChanInPlane,
			FEMB:        row.FEMB,
			ASIC:        row.ASIC,
			ASICChan:    row.ASICChan,
			Valid:       true,
		}
	}
	return table, nil
}

// LoadFDHDMapFromDB builds the FDHD map valid for a run from the
// FDHDChannelMap and FDHDCrateMap tables.
func LoadFDHDMapFromDB(db sqlx.Queryer, runNumber int, opts ...FDHDOption) (*FDHDMap, error) {
	table, err := getFDHDTableFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting channel map from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	crates, err := getCratesFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting crate map from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	opts = append([]FDHDOption{WithCrateSource(fmt.Sprintf("database run %d crate map", runNumber))}, opts...)
	return NewFDHDMap(table, crates, fmt.Sprintf("database run %d", runNumber), opts...)
}

// LoadTPCChannelMapFromDB builds the electronics channel map valid for a
// run from the TPCChannelMap table.
func LoadTPCChannelMapFromDB(db sqlx.Queryer, runNumber int, opts ...TPCMapOption) (*TPCChannelMap, error) {
	table, err := getElectronicsTableFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting electronics channel map from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	return NewTPCChannelMap(table, fmt.Sprintf("database run %d", runNumber), opts...)
}
