package features

// Contextual values the form does not collect. They are fixed at the values
// used when the service was first deployed against the King County model.
const (
	DefaultSaleDate   = "20140521T000000"
	DefaultCeil       = "2.5"
	DefaultCoast      = "0"
	DefaultLongitude  = "-122.2"
	DefaultSight      = 0
	DefaultLatitude   = 47.6
	CeilMeasurePerBed = 8
)

// RawInput is one submitted house description. Absent numeric fields are 0
// and absent text fields are empty.
type RawInput struct {
	RoomBed       float64
	RoomBath      float64
	LivingMeasure float64
	LotMeasure    float64
	Quality       float64

	Zipcode     int64
	YrRenovated int64
	Basement    int64
	Furnished   int64

	YrBuilt   string
	Condition string
	TotalArea string
}

// Record expands the input with the contextual and derived fields into the
// record layout of the training data.
func (in RawInput) Record() Record {
	return Record{
		TextField("dayhours", DefaultSaleDate),
		TextField("ceil", DefaultCeil),
		TextField("coast", DefaultCoast),
		TextField("long", DefaultLongitude),
		TextField("yr_built", in.YrBuilt),
		TextField("condition", in.Condition),
		TextField("total_area", in.TotalArea),
		FloatField("room_bed", in.RoomBed),
		FloatField("room_bath", in.RoomBath),
		FloatField("living_measure", in.LivingMeasure),
		FloatField("lot_measure", in.LotMeasure),
		IntField("sight", DefaultSight),
		FloatField("quality", in.Quality),
		FloatField("ceil_measure", CeilMeasurePerBed*in.RoomBed),
		IntField("basement", in.Basement),
		IntField("yr_renovated", in.YrRenovated),
		IntField("zipcode", in.Zipcode),
		FloatField("lat", DefaultLatitude),
		FloatField("living_measure15", in.LivingMeasure),
		FloatField("lot_measure15", in.LotMeasure),
		IntField("furnished", in.Furnished),
	}
}
