package suggest

// Fallback is served when the geocoder fails or returns nothing
var Fallback = []Suggestion{
	{Name: "Mumbai", Region: "Maharashtra"},
	{Name: "Navi Mumbai", Region: "Maharashtra"},
	{Name: "Thane", Region: "Maharashtra"},
	{Name: "Pune", Region: "Maharashtra"},
	{Name: "Nagpur", Region: "Maharashtra"},
	{Name: "Delhi", Region: "Delhi"},
	{Name: "New Delhi", Region: "Delhi"},
	{Name: "Gurugram", Region: "Haryana"},
	{Name: "Noida", Region: "Uttar Pradesh"},
	{Name: "Lucknow", Region: "Uttar Pradesh"},
	{Name: "Bangalore", Region: "Karnataka"},
	{Name: "Mysore", Region: "Karnataka"},
	{Name: "Chennai", Region: "Tamil Nadu"},
	{Name: "Coimbatore", Region: "Tamil Nadu"},
	{Name: "Hyderabad", Region: "Telangana"},
	{Name: "Kolkata", Region: "West Bengal"},
	{Name: "Ahmedabad", Region: "Gujarat"},
	{Name: "Surat", Region: "Gujarat"},
	{Name: "Jaipur", Region: "Rajasthan"},
	{Name: "Chandigarh", Region: "Chandigarh"},
	{Name: "Kochi", Region: "Kerala"},
	{Name: "Thiruvananthapuram", Region: "Kerala"},
	{Name: "Bhopal", Region: "Madhya Pradesh"},
	{Name: "Indore", Region: "Madhya Pradesh"},
	{Name: "Patna", Region: "Bihar"},
	{Name: "Bhubaneswar", Region: "Odisha"},
	{Name: "Guwahati", Region: "Assam"},
	{Name: "Visakhapatnam", Region: "Andhra Pradesh"},
	{Name: "Goa", Region: "Goa"},
	{Name: "Maharashtra"},
	{Name: "Karnataka"},
	{Name: "Tamil Nadu"},
	{Name: "Telangana"},
	{Name: "Kerala"},
	{Name: "Gujarat"},
	{Name: "Rajasthan"},
	{Name: "Uttar Pradesh"},
	{Name: "West Bengal"},
}
