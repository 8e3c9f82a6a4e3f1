package measurements

// Well-known feature names. Metadata features carry the Metadata_
// prefix; grouping writes the group number and index features and
// records the grouping tags at experiment level.
const (
	// MetadataPrefix prefixes metadata features ("Metadata_Plate").
	MetadataPrefix = "Metadata_"

	// FeatureGroupNumber is the per-image group number feature.
	FeatureGroupNumber = "Group_Number"
	// FeatureGroupIndex is the per-image group index feature.
	FeatureGroupIndex = "Group_Index"

	// FeatureGroupingTags is the experiment-level record of the
	// metadata keys used for grouping.
	FeatureGroupingTags = "Metadata_GroupingTags"

	// PathNamePrefix and FileNamePrefix prefix per-channel image
	// location features.
	PathNamePrefix = "PathName_"
	FileNamePrefix = "FileName_"

	// ObjectsPathNamePrefix and ObjectsFileNamePrefix are the
	// equivalents for object (segmentation) channels.
	ObjectsPathNamePrefix = "ObjectsPathName_"
	ObjectsFileNamePrefix = "ObjectsFileName_"
)

// MetadataFeature returns the feature name for a metadata key
// ("Plate" -> "Metadata_Plate").
func MetadataFeature(key string) string {
	return MetadataPrefix + key
}
